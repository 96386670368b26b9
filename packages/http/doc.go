// Package http holds the HTTP data apythia works with and the codecs around it.
//
// It provides:
//   - Headers with case-insensitive lookup
//   - Content-Type parsing, formatting and charset validation
//   - ActualRequest and ActualPart, the captured data assertions run against
//   - Response, the data an arrangement hands to the mocked transport
//   - Query string parsing that keeps "?flag" apart from "?flag="
//   - Multipart form data reading and writing
package http
