package model

import (
	"io"
	"runtime"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
	if err := schema.Validate(); err != nil {
		panic(err)
	}
}

// Config is the read-only configuration shared by every pipeline component.
// It is constructed once before dispatch begins and never mutated after.
type Config struct {
	Version  int      `json:"version" yaml:"version"` // fixed 0 for now
	Jobs     Jobs     `json:"jobs" yaml:"jobs"`
	Template Template `json:"template" yaml:"template"`
	Shell    string   `json:"shell" yaml:"shell"` // shell binary running expanded commands
}

// Jobs controls dispatching and result collection.
type Jobs struct {
	Workers   int  `json:"workers" yaml:"workers"` // 0 => detected CPU count
	KeepOrder bool `json:"keep_order" yaml:"keep_order"`
	DryRun    bool `json:"dry_run" yaml:"dry_run"`
	Verbose   bool `json:"verbose" yaml:"verbose"`
	MaxJobs   int  `json:"max_jobs" yaml:"max_jobs"` // 0 => unbounded
}

// Template controls the command template expansion.
type Template struct {
	Placeholder    string `json:"placeholder" yaml:"placeholder"`
	FieldSeparator string `json:"field_separator" yaml:"field_separator"`
}

// WorkerCount resolves the configured worker count, falling back to the
// detected CPU count when unset.
func (c Config) WorkerCount() int {
	if c.Jobs.Workers > 0 {
		return c.Jobs.Workers
	}
	return runtime.NumCPU()
}

// Validate checks c against the same CUE schema used for config files.
// Values coming from command-line flags bypass LoadConfig, so they are
// re-checked here before dispatch begins.
func (c Config) Validate() error {
	unified := schema.Unify(cueCtx.Encode(c))
	return unified.Validate(
		cue.All(),
		cue.Concrete(true),
	)
}

// DefaultConfig returns a configuration with every field at its schema
// default.
func DefaultConfig() Config {
	unified := schema.Unify(cueCtx.CompileString("{}"))
	var out Config
	if err := unified.Decode(&out); err != nil {
		panic(err)
	}
	return out
}

// LoadConfig validates YAML from r against the CUE schema and decodes it
// into a Config. Fields absent from the YAML take their schema defaults.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("kyanite.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}

	return out, nil
}
