package model

// Package model defines domain data structures used across the app: download
// and conversion tasks, playlist entities, remote playlist snapshots, download
// history records, and status enums. Structures are designed for direct
// binding in the UI and explicit state transitions.
