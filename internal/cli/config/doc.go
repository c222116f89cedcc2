// Package config holds the local settings of meterd-cli
// (~/.meterd/cli.yaml): the default server, the output format and named
// profiles bundling a server address with its admin key.
package config
