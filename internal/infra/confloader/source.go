package confloader

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source describes where a configuration comes from.
type Source struct {
	// File is a YAML file. Empty skips it.
	File string

	// EnvPrefix selects the environment variables, e.g. "METERD_".
	// Empty skips the environment.
	EnvPrefix string

	// Keys lists the dotted keys the target understands. When set, only
	// variables naming one of them are read and unknown file keys are
	// rejected. When empty, PREFIX_A_B maps to a.b.
	Keys []string

	// Lists names the keys holding string slices. Their environment
	// values are split on commas.
	Lists []string
}

// ErrUnknownKeys is returned for file keys outside Source.Keys.
var ErrUnknownKeys = errors.New("unknown configuration keys")

// Load merges the file and then the environment into target, which is
// decoded through its koanf struct tags.
func Load(target any, src Source) error {
	k := koanf.New(".")

	if src.File != "" {
		if err := k.Load(file.Provider(src.File), yaml.Parser()); err != nil {
			return fmt.Errorf("read %s: %w", src.File, err)
		}
		if unknown := src.unknownKeys(k.Keys()); len(unknown) > 0 {
			return fmt.Errorf("%w in %s: %s", ErrUnknownKeys, src.File, strings.Join(unknown, ", "))
		}
	}

	if src.EnvPrefix != "" {
		if err := k.Load(env.ProviderWithValue(src.EnvPrefix, ".", src.envValue), nil); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	return nil
}

// EnvName returns the variable overriding key under prefix.
func EnvName(prefix, key string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// envValue maps one variable to its key. An empty key drops the variable,
// which keeps unrelated METERD_* settings (CLI ones, for instance) out of
// the server config.
func (s Source) envValue(name, value string) (string, any) {
	key := ""
	if len(s.Keys) == 0 {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, s.EnvPrefix)), "_", ".")
	} else {
		for _, k := range s.Keys {
			if EnvName(s.EnvPrefix, k) == name {
				key = k
				break
			}
		}
	}
	if key == "" {
		return "", nil
	}

	if slices.Contains(s.Lists, key) {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

// unknownKeys returns the loaded keys that are neither known nor a
// section holding known keys (an empty "health:" block, say).
func (s Source) unknownKeys(loaded []string) []string {
	if len(s.Keys) == 0 {
		return nil
	}
	var unknown []string
	for _, l := range loaded {
		if slices.Contains(s.Keys, l) {
			continue
		}
		section := false
		for _, k := range s.Keys {
			if strings.HasPrefix(k, l+".") {
				section = true
				break
			}
		}
		if !section {
			unknown = append(unknown, l)
		}
	}
	sort.Strings(unknown)
	return unknown
}
