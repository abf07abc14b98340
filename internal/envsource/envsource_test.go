package envsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnviron(t *testing.T) {
	m := FromEnviron([]string{
		"DB_HOST=db.internal",
		"EMPTY=",
		"DSN=user=a password=b",
		"MALFORMED",
		"=novalue",
	})

	assert.Equal(t, Map{
		"DB_HOST": "db.internal",
		"EMPTY":   "",
		"DSN":     "user=a password=b",
	}, m)

	v, ok := m.Lookup("EMPTY")
	assert.True(t, ok, "empty values are present")
	assert.Equal(t, "", v)

	_, ok = m.Lookup("MALFORMED")
	assert.False(t, ok)
}

func TestFromProcess_Snapshot(t *testing.T) {
	t.Setenv("NETPULSE_SNAPSHOT_TEST", "before")

	m, err := FromProcess()
	require.NoError(t, err)
	require.Equal(t, "before", m["NETPULSE_SNAPSHOT_TEST"])

	t.Setenv("NETPULSE_SNAPSHOT_TEST", "after")
	v, _ := m.Lookup("NETPULSE_SNAPSHOT_TEST")
	assert.Equal(t, "before", v, "snapshot must not follow later changes")
}

func TestFromDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=netbox\nREDIS_SSL=true\n"), 0o600))

	m, err := FromDotenv(path)
	require.NoError(t, err)
	assert.Equal(t, "netbox", m["DB_NAME"])
	assert.Equal(t, "true", m["REDIS_SSL"])

	_, err = FromDotenv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	body := "DB_PORT: 5433\nDEBUG: true\nALLOWED_HOSTS:\n  - a.example.com\n  - b.example.com\nDB_HOST: db\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	m, err := FromYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "5433", m["DB_PORT"])
	assert.Equal(t, "true", m["DEBUG"])
	assert.Equal(t, "a.example.com b.example.com", m["ALLOWED_HOSTS"])
	assert.Equal(t, "db", m["DB_HOST"])
}

func TestLayer_LaterWins(t *testing.T) {
	base := Map{"DB_HOST": "yaml", "DB_NAME": "netbox"}
	dot := Map{"DB_HOST": "dotenv"}
	proc := Map{"DB_HOST": "process"}

	got := Layer(base, dot, proc)
	assert.Equal(t, "process", got["DB_HOST"])
	assert.Equal(t, "netbox", got["DB_NAME"])

	got["DB_NAME"] = "changed"
	assert.Equal(t, "netbox", base["DB_NAME"], "layers are copied")
}

func TestMap_Prefixed(t *testing.T) {
	m := Map{
		"DB_PASSWORD":    "vault:secret/netpulse#db",
		"DB_HOST":        "x",
		"TOOL_HINT":      "vault:whatever",
		"REDIS_PASSWORD": "vault:secret/netpulse#redis",
	}
	got := m.Prefixed("vault:", "DB_PASSWORD", "DB_HOST", "REDIS_PASSWORD", "EMAIL_PASSWORD")
	assert.Equal(t, Map{
		"DB_PASSWORD":    "vault:secret/netpulse#db",
		"REDIS_PASSWORD": "vault:secret/netpulse#redis",
	}, got)
	assert.Empty(t, m.Prefixed("vault:"))
	assert.Equal(t, []string{"DB_HOST", "DB_PASSWORD", "REDIS_PASSWORD", "TOOL_HINT"}, m.Names())
}
