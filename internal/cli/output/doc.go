// Package output renders meterd-cli results.
//
// Structured formats (json, yaml) encode the value the server returned;
// the table format is built by each command from the same value.
package output
