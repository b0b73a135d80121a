// Package extractors provides implementations of the Extractor interface
// for the supported upload formats. Each extractor knows how to recover
// plain text from one file type.
//
// Extractors are registered with the Registry at startup; the Registry is
// what rejects unsupported extensions.
package extractors
