package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// serverFlags is the set the server picks out of a shared command line.
var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-l"}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "server flags with separate values",
			args:    []string{"-a", ":8000", "-g", ":50051", "-l", "debug"},
			allowed: serverFlags,
			want:    []string{"-a", ":8000", "-g", ":50051", "-l", "debug"},
		},
		{
			name:    "equals form",
			args:    []string{"-d=postgres://u:p@db/usersvc", "-t=15"},
			allowed: serverFlags,
			want:    []string{"-d=postgres://u:p@db/usersvc", "-t=15"},
		},
		{
			name:    "config flag left for ConfigPath",
			args:    []string{"-c", "conf.json", "-s", "k"},
			allowed: serverFlags,
			want:    []string{"-s", "k"},
		},
		{
			name:    "cli long flags are not server flags",
			args:    []string{"create-superuser", "--email", "root@example.com", "--username", "root", "--full-name", "Root"},
			allowed: serverFlags,
			want:    []string{},
		},
		{
			name:    "dsn override does not collide with -d",
			args:    []string{"migrate", "--dsn=postgres://elsewhere/usersvc"},
			allowed: serverFlags,
			want:    []string{},
		},
		{
			name:    "flag without value at end is kept as-is",
			args:    []string{"-l"},
			allowed: serverFlags,
			want:    []string{"-l"},
		},
		{
			name:    "next dash token is never taken as a value",
			args:    []string{"-s", "-l", "warn"},
			allowed: serverFlags,
			want:    []string{"-s", "-l", "warn"},
		},
		{
			name:    "equals value may start with a dash",
			args:    []string{"--config=--weird.json"},
			allowed: []string{"--config"},
			want:    []string{"--config=--weird.json"},
		},
		{
			name:    "repeated flag is preserved in order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "empty args",
			args:    nil,
			allowed: serverFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	const envKey = "FLAGX_TEST_CONFIG"

	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}, envKey))
	})

	t.Run("long -config with value", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigPath([]string{"-config", "/path/long.json"}, envKey))
	})

	t.Run("double dash with equals", func(t *testing.T) {
		assert.Equal(t, "/path/eq.json", ConfigPath([]string{"--config=/path/eq.json", "-a", ":8000"}, envKey))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, ConfigPath([]string{"-x", "1", "-y", "2"}, ""))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", ConfigPath([]string{"-c", "/path/1.json", "-config", "/path/2.json"}, envKey))
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv(envKey, "/from/env.json")
		assert.Equal(t, "/from/env.json", ConfigPath(nil, envKey))
		assert.Equal(t, "/from/flag.json", ConfigPath([]string{"-c", "/from/flag.json"}, envKey))
	})
}
