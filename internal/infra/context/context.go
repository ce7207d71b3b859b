// Package context holds the request-scoped values shared by the transport,
// the services and the log handlers.
package context

type contextKey string
