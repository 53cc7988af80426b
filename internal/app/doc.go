// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the actions the command line exposes (build,
// status, validate, prune, clean), decoupled from any specific entrypoint.
package app
