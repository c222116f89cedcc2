// Package connection is the HTTP client meterd-cli uses to talk to
// meterd-server. Responses arrive in the server's standard envelope;
// ParseResponse unwraps the data field or turns the error fields into a Go
// error.
package connection
