// Package builtin resolves template calls inside response files.
//
// A call is written {{$name(args)}}; arguments are comma separated and may be
// quoted with ' or ". Available functions:
//   - uuid(): random UUID v4
//   - now(): current UTC time, RFC 3339
//   - date(layout): current UTC date, Go layout, default 2006-01-02
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - random(min, max): random integer in [min, max], default [0, 100]
//   - randomString(length): random alphanumeric string, default length 16
//   - base64(value): standard base64 encoding of value
//   - env(name, fallback): environment variable, or fallback when unset
package builtin
