// Package pixels caches decoded pixel frames behind an explicit bound.
//
// The cache is a least-recently-used map from instance identity to decoded
// image, sized in entries. Eviction is explicit and observable through
// metrics rather than left to garbage collection.
package pixels
