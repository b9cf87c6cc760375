package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider is one layer of the configuration chain.
// Lookup returns the raw value for a dotted key such as "api.url".
type Provider interface {
	Name() string
	Lookup(key string) (string, bool)
}

// Resolver asks its providers in order; the first non-empty value wins.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver over the given providers, highest priority first
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the value for key and the name of the provider that supplied it
func (r *Resolver) Resolve(key string) (string, string, bool) {
	for _, p := range r.providers {
		if p == nil {
			continue
		}
		if v, ok := p.Lookup(key); ok && strings.TrimSpace(v) != "" {
			return v, p.Name(), true
		}
	}
	return "", "", false
}

// StaticProvider serves a fixed map. Used for build-time values and defaults.
type StaticProvider struct {
	name   string
	values map[string]string
}

// NewStaticProvider creates a provider over values
func NewStaticProvider(name string, values map[string]string) *StaticProvider {
	return &StaticProvider{name: name, values: values}
}

func (p *StaticProvider) Name() string { return p.name }

func (p *StaticProvider) Lookup(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Build-time values, injected with
// -ldflags "-X github.com/mapleerp/employee-portal/pkg/config.BuildAPIURL=..."
var (
	BuildEnvironment string
	BuildAPIURL      string
	BuildVersion     string
)

// BuildProvider exposes the linker-injected values
func BuildProvider() *StaticProvider {
	return NewStaticProvider("build", map[string]string{
		"server.environment": BuildEnvironment,
		"api.url":            BuildAPIURL,
		"app.version":        BuildVersion,
	})
}

// FileProvider reads a YAML config file through viper.
type FileProvider struct {
	v    *viper.Viper
	path string
}

// NewFileProvider searches paths for <name>.yaml. A missing file yields an empty provider.
func NewFileProvider(name string, paths ...string) (*FileProvider, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &FileProvider{v: v, path: v.ConfigFileUsed()}, nil
}

func (p *FileProvider) Name() string { return "file" }

// Path returns the file that was loaded, or "" when none was found
func (p *FileProvider) Path() string { return p.path }

func (p *FileProvider) Lookup(key string) (string, bool) {
	if !p.v.IsSet(key) {
		return "", false
	}
	switch val := p.v.Get(key).(type) {
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ","), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}

// EnvProvider reads MAPLE_* process environment variables through viper.
// "api.prod_url" is looked up as MAPLE_API_PROD_URL.
type EnvProvider struct {
	v *viper.Viper
}

// NewEnvProvider creates an environment provider with the given prefix
func NewEnvProvider(prefix string) *EnvProvider {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &EnvProvider{v: v}
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Lookup(key string) (string, bool) {
	if !p.v.IsSet(key) {
		return "", false
	}
	return p.v.GetString(key), true
}

// DotEnvProvider reads variables from .env files without touching the process environment.
type DotEnvProvider struct {
	prefix string
	values map[string]string
}

// NewDotEnvProvider loads the given files; files that do not exist are skipped.
func NewDotEnvProvider(prefix string, files ...string) (*DotEnvProvider, error) {
	p := &DotEnvProvider{prefix: prefix, values: map[string]string{}}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range vals {
			// earlier files win
			if _, exists := p.values[k]; !exists {
				p.values[k] = v
			}
		}
	}

	return p, nil
}

func (p *DotEnvProvider) Name() string { return "dotenv" }

func (p *DotEnvProvider) Lookup(key string) (string, bool) {
	v, ok := p.values[EnvKey(p.prefix, key)]
	return v, ok
}

// EnvKey converts a dotted key into its environment variable name
func EnvKey(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix == "" {
		return name
	}
	return strings.ToUpper(prefix) + "_" + name
}
