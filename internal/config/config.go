// Package config loads turtle settings. Sources, lowest precedence first:
// the embedded CUE schema's defaults, an optional user .cue file, then
// TURTLE_* environment variables. The CLI applies its flags on top.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/caarlos0/env/v11"
)

//go:embed schema.cue
var schemaSource []byte

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the resolved configuration.
type Config struct {
	Backend            string `json:"backend" env:"TURTLE_BACKEND"`
	Database           string `json:"database" env:"TURTLE_DATABASE"`
	LogLevel           string `json:"log_level" env:"TURTLE_LOG_LEVEL"`
	UnsubscribeOnPanic bool   `json:"unsubscribe_on_panic" env:"TURTLE_UNSUBSCRIBE_ON_PANIC"`
	SVG                string `json:"svg" env:"TURTLE_SVG"`
}

// Error codes.
const (
	ErrCodeLoadFailed  = "E004" // file unreadable or not valid CUE
	ErrCodeNotFound    = "E005" // file does not exist
	ErrCodeBuildFailed = "E006" // embedded schema broken
	ErrCodeEnv         = "E008" // environment variable unparseable
	ErrCodeInvalid     = "E201" // value rejected by the schema
)

// Error is a configuration failure. Pos is set when CUE reported one.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsError returns true if err is or wraps a *Error.
func IsError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

func fromCUE(code string, err error) *Error {
	ce := &Error{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		ce.Message = errs[0].Error()
		ce.Pos = errs[0].Position()
	}
	return ce
}

func schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fromCUE(ErrCodeBuildFailed, err)
	}
	def := v.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return cue.Value{}, fromCUE(ErrCodeBuildFailed, err)
	}
	return def, nil
}

// Default returns the schema defaults with no file or environment applied.
func Default() (*Config, error) {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return nil, err
	}
	return decode(def)
}

// Load resolves the configuration. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return nil, err
	}

	v := def
	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
		}
		if err != nil {
			return nil, &Error{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading config: %v", err)}
		}

		user := ctx.CompileBytes(data, cue.Filename(path))
		if err := user.Err(); err != nil {
			return nil, fromCUE(ErrCodeLoadFailed, err)
		}
		v = def.Unify(user)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, &Error{Code: ErrCodeEnv, Message: fmt.Sprintf("parse env: %v", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v cue.Value) (*Config, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeInvalid, err)
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fromCUE(ErrCodeInvalid, err)
	}
	return &cfg, nil
}

// Validate checks c against the schema. Call it again after changing
// fields by hand.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return err
	}

	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fromCUE(ErrCodeInvalid, err)
	}
	return nil
}
