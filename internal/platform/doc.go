package platform

// Package platform contains OS-level glue: standard directories, opening
// files in the system file manager or default application, and fetching
// remote playlist listings through the extraction library.
