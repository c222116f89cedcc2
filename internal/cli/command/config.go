package command

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meterd/internal/cli/output"
	serverconfig "github.com/yndnr/meterd/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Server configuration helpers",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Validate a server configuration file (METERD_* overrides apply)",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show",
						Usage: "Print the merged configuration with secrets masked",
					},
				},
				Action: configCheck,
			},
			{
				Name:   "keys",
				Usage:  "List every configuration key",
				Action: configKeys,
			},
		},
	}
}

func configCheck(c *cli.Context) error {
	path, err := singleArg(c, "config file")
	if err != nil {
		return err
	}

	cfg, err := serverconfig.Load(path)
	if err != nil {
		return fmt.Errorf("config check failed: %w", err)
	}

	w := stdout(c)
	if !c.Bool("show") {
		fmt.Fprintf(w, "✓ %s is valid\n", path)
		return nil
	}

	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	format := flags.Output
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.Encode(w, format, serverconfig.Sanitize(cfg))
}

func configKeys(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	keys := serverconfig.Keys()
	return render(c, flags, keys, func(w io.Writer) error {
		t := output.NewTable(flags.Wide, "KEY", "ENV")
		for _, k := range keys {
			t.AddRow(k, serverconfig.EnvName(k))
		}
		return t.Render(w)
	})
}
