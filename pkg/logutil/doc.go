// Package logutil carries a request-scoped zap logger through
// context.Context and offers two small helpers built on it:
// LogMethodWithResult for entry/duration/error logging around a call,
// and LogError for tagging a logged error with the request id and any
// details a domain error carries.
package logutil
