package command

import (
	"fmt"
	"io"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meterd/internal/cli/config"
	"github.com/yndnr/meterd/internal/cli/output"
)

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage saved connection profiles",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved profiles",
				Action: profileList,
			},
			{
				Name:      "set",
				Usage:     "Create or update a profile",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Server address (required)",
					},
					&cli.StringFlag{
						Name:  "key",
						Usage: "Admin key",
					},
					&cli.StringFlag{
						Name:  "ca",
						Usage: "PEM bundle of extra CAs for this server",
					},
				},
				Action: profileSet,
			},
			{
				Name:      "use",
				Usage:     "Make a profile the default",
				ArgsUsage: "NAME",
				Action:    profileUse,
			},
			{
				Name:      "delete",
				Usage:     "Delete a profile",
				ArgsUsage: "NAME",
				Action:    profileDelete,
			},
		},
	}
}

// ProfileInfo is one row of profile list. Keys are never printed.
type ProfileInfo struct {
	Name    string `json:"name" yaml:"name"`
	Server  string `json:"server" yaml:"server"`
	HasKey  bool   `json:"has_key" yaml:"has_key"`
	Current bool   `json:"current" yaml:"current"`
}

func profileList(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	cfg := cliConfig(c)
	infos := make([]ProfileInfo, 0, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		infos = append(infos, ProfileInfo{
			Name:    name,
			Server:  p.Server,
			HasKey:  p.APIKey != "",
			Current: name == cfg.CurrentProfile,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return render(c, flags, infos, func(w io.Writer) error {
		if len(infos) == 0 {
			_, err := fmt.Fprintln(w, "no profiles")
			return err
		}
		t := output.NewTable(flags.Wide, "", "NAME", "SERVER", "KEY")
		for _, p := range infos {
			marker, key := "", "no"
			if p.Current {
				marker = "*"
			}
			if p.HasKey {
				key = "yes"
			}
			t.AddRow(marker, p.Name, p.Server, key)
		}
		return t.Render(w)
	})
}

func profileSet(c *cli.Context) error {
	name, err := singleArg(c, "profile name")
	if err != nil {
		return err
	}
	if c.String("url") == "" {
		return fmt.Errorf("--url is required")
	}

	cfg := cliConfig(c)
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]config.Profile)
	}
	cfg.Profiles[name] = config.Profile{
		Server: c.String("url"),
		APIKey: c.String("key"),
		CAFile: c.String("ca"),
	}
	if err := config.Save(cfg, cliConfigPath(c)); err != nil {
		return err
	}

	fmt.Fprintf(stdout(c), "Saved profile %s\n", name)
	return nil
}

func profileUse(c *cli.Context) error {
	name, err := singleArg(c, "profile name")
	if err != nil {
		return err
	}

	cfg := cliConfig(c)
	if _, ok := cfg.Profiles[name]; !ok {
		return fmt.Errorf("unknown profile %q", name)
	}
	cfg.CurrentProfile = name
	if err := config.Save(cfg, cliConfigPath(c)); err != nil {
		return err
	}

	fmt.Fprintf(stdout(c), "Switched to profile %s\n", name)
	return nil
}

func profileDelete(c *cli.Context) error {
	name, err := singleArg(c, "profile name")
	if err != nil {
		return err
	}

	cfg := cliConfig(c)
	if _, ok := cfg.Profiles[name]; !ok {
		return fmt.Errorf("unknown profile %q", name)
	}
	delete(cfg.Profiles, name)
	if cfg.CurrentProfile == name {
		cfg.CurrentProfile = ""
	}
	if err := config.Save(cfg, cliConfigPath(c)); err != nil {
		return err
	}

	fmt.Fprintf(stdout(c), "Deleted profile %s\n", name)
	return nil
}
