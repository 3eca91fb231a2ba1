package confs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(mapLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "token", cfg.CookieName)
	assert.Equal(t, "dev-only-secret", cfg.JWTSecret)
	assert.Equal(t, []string{"image/jpeg", "image/png"}, cfg.AllowedImageTypes)
	assert.Equal(t, "0.0.0.0:4000", cfg.Addr())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(mapLookup(map[string]string{
		"APP_ENV":             "production",
		"JWT_SECRET":          "s3cret",
		"TOKEN_TTL":           "90m",
		"COOKIE_SECURE":       "true",
		"CORS_ORIGINS":        "https://a.example, https://b.example",
		"ALLOWED_IMAGE_TYPES": "image/png",
		"MAX_UPLOAD_BYTES":    "1024",
		"STORE_DRIVER":        "memory",
	}))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"image/png"}, cfg.AllowedImageTypes)
	assert.EqualValues(t, 1024, cfg.MaxUploadBytes)
	assert.Equal(t, "memory", cfg.StoreDriver)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret outside development", map[string]string{"APP_ENV": "production"}},
		{"bad ttl", map[string]string{"TOKEN_TTL": "soon"}},
		{"negative ttl", map[string]string{"TOKEN_TTL": "-1h"}},
		{"unknown store", map[string]string{"STORE_DRIVER": "mongo"}},
		{"unknown media backend", map[string]string{"MEDIA_BACKEND": "ftp"}},
		{"s3 without bucket", map[string]string{"MEDIA_BACKEND": "s3"}},
		{"bad cookie flag", map[string]string{"COOKIE_SECURE": "maybe"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(mapLookup(tc.env))
			assert.Error(t, err)
		})
	}
}
