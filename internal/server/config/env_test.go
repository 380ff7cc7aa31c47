package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("USERSVC_DATABASE_DSN", "postgres://env")
	t.Setenv("USERSVC_MAX_OPEN_CONNS", "12")
	t.Setenv("USERSVC_DEBUG", "true")
	t.Setenv("USERSVC_ACCESS_TOKEN_VALIDITY_DURATION", "2h")
	t.Setenv("USERSVC_CORS_ALLOWED_ORIGINS", "https://one.example, https://two.example")
	t.Setenv("OTHER_DATABASE_DSN", "ignored")

	c := &Config{}
	c.LoadDefaults()
	require.NoError(t, parseEnv(c))

	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, 12, c.MaxOpenConns)
	assert.True(t, c.Debug)
	assert.Equal(t, 2*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, c.CORSAllowedOrigins)
	assert.Equal(t, ":8000", c.EndpointAddrHTTP, "unset variables keep defaults")
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("USERSVC_MAX_OPEN_CONNS", "many")

	c := &Config{}
	err := parseEnv(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode env")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
	assert.Empty(t, splitList(""))
}
