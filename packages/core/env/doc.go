// Package env loads .env files for template calls in response files.
//
// Values are kept in memory and never exported to the process environment;
// Vars.Lookup consults the process environment first.
package env
