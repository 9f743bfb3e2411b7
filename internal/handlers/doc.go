// Package handlers implements the JSON HTTP API: source import and removal,
// series and instance listing, tag filtering, import progress, and rendered
// frame thumbnails.
package handlers
