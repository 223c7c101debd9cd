// Package logging provides leveled, printf-style logging configured through
// the DEBUG and LOG_LEVEL environment variables.
package logging
