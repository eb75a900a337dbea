// Package config resolves the handful of environment knobs the registry and
// media-spec resolution boundary consult, via koanf layering built-in
// defaults under environment overrides. The pure planning core (graph, path
// finder, cardinality analyzer, plan builder, binding resolver) never reads
// this package directly.
package config

import (
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	koanf "github.com/knadh/koanf/v2"

	"github.com/filegrind/capdag-go/capdagerr"
)

const (
	defaultRegistryBaseURL = "https://capns.org"
	envPrefix              = "CAPNS_"
)

// RegistryConfig is the resolved set of registry/schema knobs spec.md §6
// allows (SCHEMA_BASE_URL, falling back to REGISTRY_URL + "/schema", falling
// back to a compiled default).
type RegistryConfig struct {
	RegistryBaseURL string
	SchemaBaseURL   string
}

// Load resolves RegistryConfig from built-in defaults layered under
// CAPNS_REGISTRY_URL / CAPNS_SCHEMA_BASE_URL environment overrides.
func Load() (RegistryConfig, error) {
	const op = "config.Load"

	k := koanf.New(".")

	defaults := map[string]interface{}{
		"registry_url": defaultRegistryBaseURL,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return RegistryConfig{}, capdagerr.Wrap(capdagerr.HardFail, op, "failed to load config defaults", err)
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return RegistryConfig{}, capdagerr.Wrap(capdagerr.HardFail, op, "failed to load environment overrides", err)
	}

	registryURL := k.String("registry_url")
	schemaURL := k.String("schema_base_url")
	if schemaURL == "" {
		schemaURL = registryURL + "/schema"
	}

	return RegistryConfig{
		RegistryBaseURL: registryURL,
		SchemaBaseURL:   schemaURL,
	}, nil
}
