package config

import (
	"fmt"
	"reflect"

	"github.com/yndnr/meterd/internal/infra/confloader"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "METERD_"

// Load reads the defaults, then path (when not empty), then METERD_*
// variables, and verifies the result.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()

	src := confloader.Source{
		File:      path,
		EnvPrefix: EnvPrefix,
		Keys:      Keys(),
		Lists:     listKeys(),
	}
	if err := confloader.Load(cfg, src); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Keys returns every dotted configuration key, e.g. "server.http.rate_limit".
func Keys() []string {
	return collectKeys(reflect.TypeOf(ServerConfig{}), "", false)
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return confloader.EnvName(EnvPrefix, key)
}

// listKeys returns the keys of []string fields; their environment values
// are comma separated.
func listKeys() []string {
	return collectKeys(reflect.TypeOf(ServerConfig{}), "", true)
}

func collectKeys(t reflect.Type, prefix string, listsOnly bool) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, collectKeys(f.Type, key, listsOnly)...)
			continue
		}
		if listsOnly && f.Type.Kind() != reflect.Slice {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
