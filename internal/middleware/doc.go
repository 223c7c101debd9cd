// Package middleware provides the HTTP request logging and metrics wrappers
// for the engine's trigger and read API.
package middleware
