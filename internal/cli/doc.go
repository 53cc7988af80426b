// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates environment variables and flags into the application's
// configuration and dispatches to the App actions.
package cli
