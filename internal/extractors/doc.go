// Package extractors provides implementations of the Extractor interface
// for the supported media kinds. Each extractor knows how to turn the bytes
// of one kind into plain text.
//
// Extractors are registered with the Registry at startup. The Registry
// dispatches strictly on the declared MIME type; content is never sniffed.
package extractors
