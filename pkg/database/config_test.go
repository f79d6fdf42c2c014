package database

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "kgctl", Password: "secret",
				Database: "kgctl", SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5,
			},
			wantErr: false,
		},
		{
			name: "missing password",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "kgctl", Database: "kgctl",
				MaxOpenConns: 10, MaxIdleConns: 5,
			},
			wantErr: true,
		},
		{
			name: "idle exceeds open",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "kgctl", Password: "secret",
				Database: "kgctl", MaxOpenConns: 5, MaxIdleConns: 10,
			},
			wantErr: true,
		},
		{
			name: "zero max open conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "kgctl", Password: "secret",
				Database: "kgctl", MaxOpenConns: 0, MaxIdleConns: 0,
			},
			wantErr: true,
		},
		{
			name: "negative idle conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "kgctl", Password: "secret",
				Database: "kgctl", MaxOpenConns: 10, MaxIdleConns: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	assert.Equal(t, "fallback", getEnvOrDefault("KGCTL_DB_TEST_UNSET_VAR", "fallback"))
	t.Setenv("KGCTL_DB_TEST_SET_VAR", "value")
	assert.Equal(t, "value", getEnvOrDefault("KGCTL_DB_TEST_SET_VAR", "fallback"))
}

func TestHealthUnreachableDB(t *testing.T) {
	db, err := sql.Open("pgx", "host=127.0.0.1 port=1 user=nouser password=nopass dbname=none connect_timeout=1")
	require.NoError(t, err)
	defer db.Close()

	status, err := Health(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, "unhealthy", status.Status)
}
