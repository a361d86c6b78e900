package model

// RemoteItem is a single entry of a remote playlist listing.
type RemoteItem struct {
	ID    string
	Title string
}

// Snapshot is the listing of a remote playlist as fetched at sync time.
// It is ephemeral: never persisted, recomputed on each sync.
type Snapshot struct {
	PlaylistID string
	Title      string
	URL        string
	Items      []RemoteItem // remote order, may contain duplicate IDs
}
