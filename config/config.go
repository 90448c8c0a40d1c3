// Package config loads the extension settings from defaults, an optional
// YAML file, and TYPEDROUTES_-prefixed environment variables, in that
// priority order.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Validation modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// DefaultFile is the optional settings file looked up in the working
// directory.
const DefaultFile = "typedroutes.yaml"

const envPrefix = "TYPEDROUTES_"

// Settings holds every tunable of the extension.
type Settings struct {
	Mode       string     `koanf:"mode"`
	Validation Validation `koanf:"validation"`
	Doc        Doc        `koanf:"doc"`
	Log        Log        `koanf:"log"`
}

// Validation controls request-validation behavior.
type Validation struct {
	// Status is the HTTP status of validation-error responses.
	Status int `koanf:"status"`
	// IgnoreVerbs lists HTTP methods that are never wrapped.
	IgnoreVerbs []string `koanf:"ignoreverbs"`
}

// Doc feeds the OpenAPI info block.
type Doc struct {
	Title       string `koanf:"title"`
	Version     string `koanf:"version"`
	Description string `koanf:"description"`
}

// Log controls the extension logger.
type Log struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Load builds Settings with the standard source priority: defaults, then
// the optional YAML file, then environment variables.
func Load() (*Settings, error) {
	return LoadFile(DefaultFile)
}

// LoadFile is Load with an explicit settings-file path.
func LoadFile(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The settings file is optional.
	if path != "" {
		_ = k.Load(file.Provider(path), yaml.Parser())
	}

	envOpt := env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, envPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}
	if err := k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default returns the built-in settings without touching files or the
// environment.
func Default() *Settings {
	return &Settings{
		Mode: ModeAuto,
		Validation: Validation{
			Status:      400,
			IgnoreVerbs: []string{"HEAD", "OPTIONS"},
		},
		Doc: Doc{
			Title:   "Typed Routes API",
			Version: "0.1.0",
		},
		Log: Log{Level: "info"},
	}
}

func defaults() map[string]any {
	return map[string]any{
		"mode":                   ModeAuto,
		"validation.status":      400,
		"validation.ignoreverbs": []string{"HEAD", "OPTIONS"},
		"doc.title":              "Typed Routes API",
		"doc.version":            "0.1.0",
		"doc.description":        "",
		"log.level":              "info",
		"log.pretty":             false,
	}
}

// Validate rejects settings no Extension can run with.
func Validate(s *Settings) error {
	if s.Mode != ModeAuto && s.Mode != ModeManual {
		return fmt.Errorf("invalid mode: %q", s.Mode)
	}
	if s.Validation.Status < 400 || s.Validation.Status > 499 {
		return fmt.Errorf("validation status must be a client-error code, got %d", s.Validation.Status)
	}
	return nil
}
