package history

import (
	"github.com/sandsound/sandsound/internal/model"
)

// Reconcile computes the subset of a remote playlist listing that still needs
// downloading: the remote items whose IDs are not in downloaded, preserving
// remote order. Duplicate remote IDs are considered once (first occurrence
// wins). Downloaded IDs that no longer appear remotely are ignored. Pure
// function, no side effects.
func Reconcile(remote []model.RemoteItem, downloaded map[string]struct{}) []model.RemoteItem {
	result := make([]model.RemoteItem, 0, len(remote))
	seen := make(map[string]struct{}, len(remote))

	for _, item := range remote {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		if _, have := downloaded[item.ID]; have {
			continue
		}
		result = append(result, item)
	}

	return result
}
