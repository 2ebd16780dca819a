// Package extractors provides implementations of the Extractor interface
// for the supported file formats, and a registry that resolves the right
// extractor by MIME type with a file extension fallback.
//
// Extractors are registered with the Registry at startup.
package extractors
