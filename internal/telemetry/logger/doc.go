// Package logger builds the *slog.Logger every meterd component receives.
//
// All loggers made by New share one level, which SetLevel changes at
// runtime (config reload). Records logged with a context carrying a request
// ID get a request_id attribute. Admin keys, their hashes and attributes
// named like credentials are masked before they reach the output.
package logger
