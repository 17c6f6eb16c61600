package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	for _, k := range []string{"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DB", "PG_SSLMODE"} {
		t.Setenv(k, "")
	}
	assert.Equal(t, "postgres://postgres@localhost:5432/geocoding?sslmode=disable", BuildPostgresDSNFromEnv())

	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "geo")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DB", "osm")
	t.Setenv("PG_SSLMODE", "require")
	assert.Equal(t, "postgres://geo:secret@db:5432/osm?sslmode=require", BuildPostgresDSNFromEnv())
}

func TestEnvInt(t *testing.T) {
	t.Setenv("RGC_TEST_INT", "42")
	assert.Equal(t, 42, EnvInt("RGC_TEST_INT", 7))
	t.Setenv("RGC_TEST_INT", "many")
	assert.Equal(t, 7, EnvInt("RGC_TEST_INT", 7))
	t.Setenv("RGC_TEST_INT", "")
	assert.Equal(t, 7, EnvInt("RGC_TEST_INT", 7))
}

func TestOpenRedisFromEnv(t *testing.T) {
	t.Setenv("REDIS_ENABLE", "")
	assert.Nil(t, OpenRedisFromEnv())

	t.Setenv("REDIS_ENABLE", "true")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "-3")
	c := OpenRedisFromEnv()
	require.NotNil(t, c)
	defer c.Close()
	assert.Equal(t, "cache:6380", c.Options().Addr)
	assert.Equal(t, 0, c.Options().DB)
}
