package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolatedOptions points the file and .env layers at an empty temp dir
func isolatedOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		ConfigName:  "employee-portal",
		ConfigPaths: []string{dir},
		DotEnvFiles: []string{filepath.Join(dir, ".env")},
	}
}

func clearMapleEnv(t *testing.T) {
	t.Helper()
	for _, key := range Keys() {
		name := EnvKey(EnvPrefix, key)
		if _, ok := os.LookupEnv(name); ok {
			t.Setenv(name, "")
		}
	}
}

func TestResolver_FirstNonEmptyWins(t *testing.T) {
	r := NewResolver(
		NewStaticProvider("first", map[string]string{"a": "", "b": "  "}),
		NewStaticProvider("second", map[string]string{"a": "from-second"}),
		NewStaticProvider("third", map[string]string{"a": "from-third", "b": "b-third"}),
	)

	v, src, ok := r.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, "from-second", v)
	assert.Equal(t, "second", src)

	v, src, ok = r.Resolve("b")
	require.True(t, ok)
	assert.Equal(t, "b-third", v)
	assert.Equal(t, "third", src)

	_, _, ok = r.Resolve("missing")
	assert.False(t, ok)
}

func TestLoad_Defaults(t *testing.T) {
	clearMapleEnv(t)

	cfg, err := LoadWithOptions(isolatedOptions(t))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, "http://localhost:4000", cfg.BackendURL())
	assert.Equal(t, "Maple ERP Frontend", cfg.App.Name)
	assert.Equal(t, "/employees", cfg.Endpoints.Employees)
	assert.True(t, cfg.Features.HealthCheck)
	assert.True(t, cfg.Features.MultiBadge)
	assert.Equal(t, int64(5242880), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/jpg"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.Equal(t, "pt-BR", cfg.UI.Locale)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Loading)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Request)
	assert.Equal(t, "Erro de conexão. Verifique sua internet.", cfg.Messages.NetworkError)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.RabbitMQ.Enabled())
	assert.Equal(t, "default", cfg.Sources["api.dev_url"])
}

func TestLoad_ChainOrder(t *testing.T) {
	clearMapleEnv(t)
	opts := isolatedOptions(t)
	dir := opts.ConfigPaths[0]

	yaml := []byte("app:\n  name: Portal From File\npagination:\n  default_page_size: 50\nfeatures:\n  export: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "employee-portal.yaml"), yaml, 0o600))
	dotenv := []byte("MAPLE_APP_NAME=from-dotenv\nMAPLE_UI_CURRENCY=USD\nMAPLE_PAGINATION_DEFAULT_PAGE_SIZE=10\n")
	require.NoError(t, os.WriteFile(opts.DotEnvFiles[0], dotenv, 0o600))

	t.Setenv("MAPLE_PAGINATION_DEFAULT_PAGE_SIZE", "30")
	t.Setenv("MAPLE_UI_LOCALE", "en")

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	// file beats env and .env
	assert.Equal(t, "Portal From File", cfg.App.Name)
	assert.Equal(t, 50, cfg.Pagination.DefaultPageSize)
	assert.False(t, cfg.Features.Export)
	// env beats .env
	assert.Equal(t, "en", cfg.UI.Locale)
	// .env beats defaults
	assert.Equal(t, "USD", cfg.UI.Currency)

	assert.Equal(t, "file", cfg.Sources["app.name"])
	assert.Equal(t, "env", cfg.Sources["ui.locale"])
	assert.Equal(t, "dotenv", cfg.Sources["ui.currency"])
}

func TestLoad_ExtraProvidersComeFirst(t *testing.T) {
	clearMapleEnv(t)
	t.Setenv("MAPLE_API_URL", "http://from-env:4000")

	opts := isolatedOptions(t)
	opts.Extra = []Provider{NewStaticProvider("build", map[string]string{"api.url": "https://api.example.com/"})}

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BackendURL())
}

func TestConfig_Validate(t *testing.T) {
	clearMapleEnv(t)

	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "development accepts defaults",
			wantErr: false,
		},
		{
			name:    "production requires an explicit API URL",
			env:     map[string]string{"MAPLE_SERVER_ENVIRONMENT": "production"},
			wantErr: true,
		},
		{
			name: "production accepts explicit prod URL",
			env: map[string]string{
				"MAPLE_SERVER_ENVIRONMENT": "production",
				"MAPLE_API_PROD_URL":       "https://maple-erp-backend.onrender.com",
			},
			wantErr: false,
		},
		{
			name: "production rejects localhost",
			env: map[string]string{
				"MAPLE_SERVER_ENVIRONMENT": "production",
				"MAPLE_API_URL":            "http://localhost:4000",
			},
			wantErr: true,
		},
		{
			name:    "page size above max",
			env:     map[string]string{"MAPLE_PAGINATION_DEFAULT_PAGE_SIZE": "500"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadWithOptions(isolatedOptions(t))
			require.NoError(t, err)

			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "MAPLE_API_PROD_URL", EnvKey("maple", "api.prod_url"))
	assert.Equal(t, "UI_LOCALE", EnvKey("", "ui.locale"))
}
