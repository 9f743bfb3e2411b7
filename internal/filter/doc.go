// Package filter compiles and evaluates the tag search filter.
//
// A filter is a regular expression matched case-insensitively against a
// record's keyword, its formatted (group, element) id, and its rendered
// value; a record matches if any of the three does. The empty pattern is
// the identity filter. Engine tracks the active filter for a search box and
// refuses to replace it with one that does not compile.
package filter
