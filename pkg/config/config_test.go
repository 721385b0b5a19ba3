package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-lifecycle/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	// Viper trata una variable vacía como no definida: aplica el valor por defecto.
	t.Setenv("DB_DRIVER", "")
	t.Setenv("HTTP_PORT", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	cfg, err := config.Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("WORKFLOW_TRANSITIONS_FILE", "/etc/invoices/transitions.yaml")
	t.Setenv("DB_PASSWORD", "p@ss:word")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.DB.Driver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/etc/invoices/transitions.yaml", cfg.Workflow.TransitionsFile)
	assert.Contains(t, cfg.DB.DSN(), "p%40ss%3Aword", "la contraseña se codifica en el DSN")
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{DatabaseURL: "postgres://u:p@db:5432/x"}
	assert.Equal(t, "postgres://u:p@db:5432/x", c.ConnectionString())

	c = config.DBConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "invoices", SSLMode: "disable"}
	assert.Equal(t, "postgres://postgres:@localhost:5432/invoices?sslmode=disable", c.ConnectionString())
}

func TestValidate(t *testing.T) {
	c := &config.Config{DB: config.DBConfig{Driver: "sqlite"}, HTTP: config.HTTPConfig{Port: 8080}}
	assert.Error(t, c.Validate())

	c.DB.Driver = config.DriverPostgres
	assert.NoError(t, c.Validate())

	c.HTTP.Port = 0
	assert.Error(t, c.Validate())
}
