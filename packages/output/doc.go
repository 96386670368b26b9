// Package output prints mock server activity and errors for the CLI in
// human-readable, optionally colored, form.
package output
