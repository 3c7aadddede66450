package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxVerifyAttempts)
	assert.Equal(t, 8, cfg.Auth.PasswordMinLength)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoadRejectsNegativeVerifyAttempts(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("OTP_MAX_VERIFY_ATTEMPTS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTP_MAX_VERIFY_ATTEMPTS")
}

func TestLoadTrimsOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadSeedAccounts(t *testing.T) {
	accounts, err := LoadSeedAccounts("")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	path := filepath.Join(t.TempDir(), "seed.json")
	body := `[{"fullName":"PowerPool Admin","email":"admin@energynexus.com","phone":"8840776158","password":"change-me-please","pincode":"110001"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	accounts, err = LoadSeedAccounts(path)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "8840776158", accounts[0].Phone)

	_, err = LoadSeedAccounts(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
