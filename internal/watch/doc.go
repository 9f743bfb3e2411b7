// Package watch re-imports directory sources when their contents change.
//
// Watching is per source root and debounced, so a burst of writes (a study
// being copied in) produces one re-import once the burst settles. Archive
// sources are not watched; a zip changes by being replaced, which the user
// resolves by importing it again.
package watch
