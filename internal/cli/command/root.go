package command

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meterd/internal/cli/config"
	"github.com/yndnr/meterd/internal/cli/connection"
	"github.com/yndnr/meterd/internal/cli/output"
	"github.com/yndnr/meterd/internal/infra/buildinfo"
	"github.com/yndnr/meterd/internal/infra/tlsroots"
)

const (
	metaConfig     = "cliConfig"
	metaConfigPath = "cliConfigPath"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "meterd-cli",
		Usage:   "meterd command-line management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			MetricsCommand(),
			SystemCommand(),
			AdminCommand(),
			ConfigCommand(),
			ProfileCommand(),
		},
		Metadata: map[string]any{},
		Before:   loadCLIConfig,
	}

	return app
}

// loadCLIConfig reads the local CLI configuration into the app metadata.
func loadCLIConfig(c *cli.Context) error {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaConfigPath] = path
	return nil
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "meterd server address (e.g., localhost:5090)",
			EnvVars: []string{"METERD_SERVER"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "Admin key for resetting reads and /admin endpoints",
			EnvVars: []string{"METERD_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Saved profile to connect with",
			EnvVars: []string{"METERD_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM bundle of extra CAs trusted for https servers",
			EnvVars: []string{"METERD_CA_FILE"},
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Do not clip long table cells",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI configuration file",
			EnvVars: []string{"METERD_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
	}
}

// GlobalFlags holds the effective global settings: flags first, then the
// selected profile, then the CLI configuration defaults.
type GlobalFlags struct {
	// Server connection
	Server   string
	APIKey   string
	CAFile   string
	Insecure bool
	Timeout  time.Duration

	// Output format
	Output output.Format
	Wide   bool
}

// ParseGlobalFlags resolves global flags against the CLI configuration.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := cliConfig(c)

	p, err := cfg.Resolve(c.String("profile"))
	if err != nil {
		return nil, err
	}

	flags := &GlobalFlags{
		Server:   p.Server,
		APIKey:   p.APIKey,
		CAFile:   p.CAFile,
		Insecure: c.Bool("insecure"),
		Timeout:  cfg.DefaultTimeout,
		Wide:     c.Bool("wide"),
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("api-key") {
		flags.APIKey = c.String("api-key")
	}
	if c.IsSet("ca-file") {
		flags.CAFile = c.String("ca-file")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}

	format := cfg.DefaultOutput
	if c.IsSet("output") {
		format = c.String("output")
	}
	if flags.Output, err = output.ParseFormat(format); err != nil {
		return nil, err
	}

	return flags, nil
}

// cliConfig returns the loaded CLI configuration, or the defaults when the
// Before hook did not run.
func cliConfig(c *cli.Context) *config.CLIConfig {
	if c.App != nil {
		if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
			return cfg
		}
	}
	return config.Default()
}

// cliConfigPath returns the CLI configuration path in use.
func cliConfigPath(c *cli.Context) string {
	if c.App != nil {
		if path, ok := c.App.Metadata[metaConfigPath].(string); ok && path != "" {
			return path
		}
	}
	if path := c.String("config"); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}

// EnsureConnected resolves the global flags and returns an HTTP client for
// the selected server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	if flags.Server == "" {
		return nil, nil, fmt.Errorf("no server configured: use --server or a profile")
	}

	var opts []connection.ClientOption
	if strings.HasPrefix(flags.Server, "https://") || flags.CAFile != "" || flags.Insecure {
		tlsCfg, err := tlsroots.ClientConfig(flags.CAFile, flags.Insecure)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}

	client := connection.NewHTTPClient(flags.Server, flags.APIKey, flags.Timeout, opts...)
	return client, flags, nil
}

// stdout returns the writer commands print results to.
func stdout(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// stderr returns the writer commands print notices to.
func stderr(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// singleArg returns the command's only positional argument. Flag parsing
// stops at the first positional argument, so anything after it lands in
// Args and is reported here rather than silently dropped.
func singleArg(c *cli.Context, what string) (string, error) {
	switch n := c.NArg(); {
	case n == 0 || strings.TrimSpace(c.Args().First()) == "":
		return "", fmt.Errorf("%s required", what)
	case n > 1:
		return "", fmt.Errorf("unexpected arguments after %s %q: %s (flags must come before the %s)",
			what, c.Args().First(), strings.Join(c.Args().Tail(), " "), what)
	}
	return c.Args().First(), nil
}

// render writes data with a structured formatter, or calls table for the
// table format.
func render(c *cli.Context, flags *GlobalFlags, data any, table func(w io.Writer) error) error {
	if flags.Output == output.FormatTable && table != nil {
		return table(stdout(c))
	}
	return output.Encode(stdout(c), flags.Output, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
