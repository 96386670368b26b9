// Package failure defines the three error classes produced by apythia.
//
//   - UsageError: the DSL was used incorrectly (a call-once method was called twice,
//     exclusive groups were mixed, an empty value list was given, ...). This is a
//     mistake in the test, not an assertion outcome.
//   - AssertionError: the actual request does not satisfy the expectation. It carries
//     every mismatch found, each with the clue path of the field that failed.
//   - UnsupportedEncodingError: a body could not be decoded for comparison.
//
// Use IsUsage, IsAssertion and IsUnsupportedEncoding to tell them apart.
package failure
