// Package startup handles configuration loading, build information, and
// startup/shutdown logging.
package startup
