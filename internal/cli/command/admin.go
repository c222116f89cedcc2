package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meterd/pkg/token"
)

// AdminCommand returns the admin subcommand group.
func AdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Admin key management",
		Subcommands: []*cli.Command{
			{
				Name:  "hash-key",
				Usage: "Hash an admin key for admin.api_key_hash (generates one when --key is empty)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "key",
						Usage: "Existing plaintext key to hash",
					},
				},
				Action: adminHashKey,
			},
			{
				Name:  "verify-key",
				Usage: "Check a plaintext key against a stored hash",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Usage:    "Plaintext key",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "hash",
						Usage:    "argon2id hash from admin.api_key_hash",
						Required: true,
					},
				},
				Action: adminVerifyKey,
			},
		},
	}
}

// KeyHashResult is the output of admin hash-key.
type KeyHashResult struct {
	Key       string `json:"key" yaml:"key"`
	Hash      string `json:"hash" yaml:"hash"`
	Generated bool   `json:"generated" yaml:"generated"`
}

func adminHashKey(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	result := KeyHashResult{Key: c.String("key")}
	if result.Key == "" {
		if result.Key, err = token.NewKey(); err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		result.Generated = true
	} else if err := token.CheckKey(result.Key); err != nil {
		return err
	}

	if result.Hash, err = token.Hash(result.Key); err != nil {
		return fmt.Errorf("hash key: %w", err)
	}

	return render(c, flags, result, func(w io.Writer) error {
		if result.Generated {
			fmt.Fprintf(w, "Key:   %s\n", result.Key)
			fmt.Fprintf(w, "       (shown once; store it securely)\n")
		}
		fmt.Fprintf(w, "Hash:  %s\n\n", result.Hash)
		fmt.Fprintf(w, "Add to the server configuration:\n\n")
		fmt.Fprintf(w, "admin:\n  api_key_hash: %q\n", result.Hash)
		return nil
	})
}

func adminVerifyKey(c *cli.Context) error {
	hash := c.String("hash")
	if err := token.Validate(hash); err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}
	if !token.Verify(c.String("key"), hash) {
		return errors.New("key does not match hash")
	}
	fmt.Fprintln(stdout(c), "✓ Key matches hash")
	return nil
}
