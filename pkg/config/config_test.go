package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creamy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Empty(t, cfg.Store.DSN)
	assert.Equal(t, "dir", cfg.Images.Driver)
	assert.Equal(t, "uploaded_images", cfg.Images.Dir)
	assert.Equal(t, "deu", cfg.OCR.Language)
	assert.Equal(t, "fail", cfg.OCR.OnFailure)
	assert.Equal(t, "lexicon", cfg.NLP.Engine)
	assert.Equal(t, 5*time.Second, cfg.Translate.Timeout)
	assert.Equal(t, uint(1), cfg.Translate.Attempts)
	assert.True(t, cfg.Translate.Enabled)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		env               map[string]string
		wantErrorContains []string
		check             func(t *testing.T, cfg *Config)
	}{
		{
			name: "file values",
			configContent: `server:
  addr: 127.0.0.1:8080
store:
  driver: postgres
  dsn: postgres://localhost/creamy
ocr:
  on_failure: store_empty
  preprocess: true
translate:
  timeout: 2s
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
				assert.Equal(t, "postgres", cfg.Store.Driver)
				assert.Equal(t, "store_empty", cfg.OCR.OnFailure)
				assert.True(t, cfg.OCR.Preprocess)
				assert.Equal(t, 2*time.Second, cfg.Translate.Timeout)
			},
		},
		{
			name:          "environment overrides file",
			configContent: "store:\n  driver: sqlite\n",
			env: map[string]string{
				"CREAMY_STORE_DRIVER":            "mongo",
				"CREAMY_STORE_DSN":               "mongodb://localhost:27017",
				"CREAMY_IMAGES_DRIVER":           "minio",
				"CREAMY_IMAGES_MINIO_ENDPOINT":   "localhost:9000",
				"CREAMY_IMAGES_MINIO_ACCESS_KEY": "key",
				"CREAMY_IMAGES_MINIO_SECRET_KEY": "secret",
				"CREAMY_IMAGES_MINIO_BUCKET":     "uploads",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mongo", cfg.Store.Driver)
				assert.Equal(t, "mongodb://localhost:27017", cfg.Store.DSN)
				assert.Equal(t, "minio", cfg.Images.Driver)
				assert.Equal(t, "uploads", cfg.Images.Minio.Bucket)
				assert.Equal(t, "uploaded_images/", cfg.Images.Minio.Prefix)
			},
		},
		{
			name:              "invalid YAML format",
			configContent:     "server: [unclosed",
			wantErrorContains: []string{"could not be read"},
		},
		{
			name:              "unknown driver",
			configContent:     "store:\n  driver: oracle\n",
			wantErrorContains: []string{"invalid configuration", "driver"},
		},
		{
			name:              "server database without dsn",
			configContent:     "store:\n  driver: postgres\n",
			wantErrorContains: []string{"store.dsn is a required field"},
		},
		{
			name:              "mongo without dsn",
			configContent:     "store:\n  driver: mongo\n",
			wantErrorContains: []string{"store.dsn"},
		},
		{
			name:              "bad failure policy",
			configContent:     "ocr:\n  on_failure: retry\n",
			wantErrorContains: []string{"on_failure"},
		},
		{
			name:              "minio without credentials",
			configContent:     "images:\n  driver: minio\n",
			wantErrorContains: []string{"images.minio.endpoint", "images.minio.bucket"},
		},
		{
			name:              "service engine without url",
			configContent:     "nlp:\n  engine: service\n",
			wantErrorContains: []string{"nlp.service_url"},
		},
		{
			name:              "missing punkt model",
			configContent:     "nlp:\n  punkt_model: /does/not/exist.json\n",
			wantErrorContains: []string{"nlp.punkt_model must be an existing and readable file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(writeConfig(t, tt.configContent))
			if len(tt.wantErrorContains) > 0 {
				require.Error(t, err)
				for _, s := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), s)
				}
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CREAMY_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CREAMY_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
