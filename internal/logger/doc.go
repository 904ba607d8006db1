// Package logger wraps zap for the panel binaries.
//
// A process-wide sugared logger is configured once from settings. Request
// scoped loggers travel in context.Context, so handlers and services log with
// the request id and tenant attached. Helpers such as InfoKV and ErrorKV read
// the logger from the context they are given.
package logger
