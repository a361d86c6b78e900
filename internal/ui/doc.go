package ui

// Package ui contains the Fyne-based desktop user interface. It wires user
// interactions to the download, conversion, and history services and renders
// tasks, playlists, notifications, and settings.
