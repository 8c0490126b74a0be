package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitehub-io/tenantcore/pkg/config"
)

type RoutingConfig struct {
	BaseDomain string `env:"ROUTING_BASE_DOMAIN" envDefault:"example.com"`
	CacheSize  int    `env:"ROUTING_CACHE_SIZE" envDefault:"1000"`
	Subdomains bool   `env:"ROUTING_SUBDOMAINS" envDefault:"true"`
}

type ProvisionConfig struct {
	Template string `env:"PROVISION_CONN_TEMPLATE" envDefault:"postgres://localhost/{database}"`
	Attempts int    `env:"PROVISION_RETRY_ATTEMPTS" envDefault:"3"`
}

type SingletonConfig struct {
	Value string `env:"SINGLETON_VALUE" envDefault:"default_value"`
}

type RequiredAdminConfig struct {
	AdminConnString string `env:"PG_ADMIN_CONN_URL,required"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("ROUTING_BASE_DOMAIN", "sites.acme.io")
	t.Setenv("ROUTING_CACHE_SIZE", "500")
	t.Setenv("ROUTING_SUBDOMAINS", "false")

	var cfg RoutingConfig
	err := config.Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "sites.acme.io", cfg.BaseDomain)
	assert.Equal(t, 500, cfg.CacheSize)
	assert.Equal(t, false, cfg.Subdomains)
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("PROVISION_CONN_TEMPLATE")
	os.Unsetenv("PROVISION_RETRY_ATTEMPTS")

	var cfg ProvisionConfig
	err := config.Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/{database}", cfg.Template)
	assert.Equal(t, 3, cfg.Attempts)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("PG_ADMIN_CONN_URL")

	var cfg RequiredAdminConfig
	err := config.Load(&cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_Singleton(t *testing.T) {
	t.Setenv("SINGLETON_VALUE", "first_value")

	var first SingletonConfig
	require.NoError(t, config.Load(&first))

	// Changing the environment after the first load must not matter: the
	// parsed config is cached per type.
	t.Setenv("SINGLETON_VALUE", "second_value")

	var second SingletonConfig
	require.NoError(t, config.Load(&second))

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, "first_value", second.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *RoutingConfig
	err := config.Load(cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}
