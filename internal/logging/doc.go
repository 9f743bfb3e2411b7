// Package logging provides leveled logging for the DICOM browser.
//
// The level is resolved once from the environment: DEBUG=true forces debug
// output, otherwise LOG_LEVEL selects one of debug, info, warn, or error.
// The default level is info.
package logging
