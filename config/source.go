package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Source supplies raw option values.
type Source interface {
	Name() string
	Lookup(opt Option) (string, bool)
}

// FlagSource reads options from parsed command-line flags. Only flags
// set explicitly count.
type FlagSource struct {
	flags *pflag.FlagSet
}

// NewFlagSource wraps a parsed flag set.
func NewFlagSource(flags *pflag.FlagSet) *FlagSource {
	return &FlagSource{flags: flags}
}

// Name implements Source.
func (f *FlagSource) Name() string { return "flag" }

// Lookup implements Source.
func (f *FlagSource) Lookup(opt Option) (string, bool) {
	fl := f.flags.Lookup(opt.Flag)
	if fl == nil || !fl.Changed {
		return "", false
	}
	return fl.Value.String(), true
}

// EnvSource reads options from KLAYR_REG_* environment variables.
type EnvSource struct {
	v *viper.Viper
}

// NewEnvSource binds every option to its environment variable.
func NewEnvSource() *EnvSource {
	v := viper.New()
	for _, opt := range Options {
		_ = v.BindEnv(opt.Key, opt.Env)
	}
	_ = v.BindEnv("config", EnvConfigPath)
	return &EnvSource{v: v}
}

// Name implements Source.
func (e *EnvSource) Name() string { return "environment" }

// Lookup implements Source.
func (e *EnvSource) Lookup(opt Option) (string, bool) {
	v := strings.TrimSpace(e.v.GetString(opt.Key))
	return v, v != ""
}

// MapSource serves options from a map keyed by config file key.
type MapSource struct {
	name   string
	values map[string]string
}

// NewMapSource creates a named map source.
func NewMapSource(name string, values map[string]string) *MapSource {
	return &MapSource{name: name, values: values}
}

// Name implements Source.
func (m *MapSource) Name() string { return m.name }

// Lookup implements Source.
func (m *MapSource) Lookup(opt Option) (string, bool) {
	v, ok := m.values[opt.Key]
	return v, ok
}

// ConfigPath returns KLAYR_REG_CONFIG.
func (e *EnvSource) ConfigPath() string {
	return strings.TrimSpace(e.v.GetString("config"))
}
