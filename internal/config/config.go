// Package config loads the slotmarks configuration file.
//
// Files are YAML, decoded strictly (unknown fields are rejected) and then
// validated against the embedded CUE schema in schema.cue. Command-line flags
// are applied on top with Override.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/slotmarks/internal/ir"
)

//go:embed schema.cue
var schemaSource string

const (
	// DefaultDatabase is the database path used when none is configured.
	DefaultDatabase = "slotmarks.db"

	// DefaultWorkspace is the workspace used when none is configured.
	DefaultWorkspace = "default"
)

// Config holds the settings shared by every slotmarks command.
type Config struct {
	Database   string `yaml:"database,omitempty" json:"database,omitempty"`
	Workspace  string `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	StorageKey string `yaml:"storage_key,omitempty" json:"storage_key,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:   DefaultDatabase,
		Workspace:  DefaultWorkspace,
		StorageKey: ir.StorageKey,
	}
}

// Override returns c with every non-empty field of over applied.
func (c Config) Override(over Config) Config {
	if over.Database != "" {
		c.Database = over.Database
	}
	if over.Workspace != "" {
		c.Workspace = over.Workspace
	}
	if over.StorageKey != "" {
		c.StorageKey = over.StorageKey
	}
	return c
}

// Load reads the config file at path and applies it over Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return Default().Override(cfg), nil
}

// Parse decodes and validates a YAML config document. Fields absent from the
// document are left empty; use Override to apply them over a base config.
func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// ValidationError reports a config value rejected by the schema.
type ValidationError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid config: " + e.Message
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
}

// formatCUEError reduces a CUE error list to its first error.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	first := errs[0]
	var field string
	if path := first.Path(); len(path) > 0 {
		// Drop the definition name; report the field as written in YAML.
		if strings.HasPrefix(path[0], "#") {
			path = path[1:]
		}
		field = strings.Join(path, ".")
	}

	ve := &ValidationError{Field: field, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ve.Pos = positions[0]
	}
	return ve
}
