package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/netpulse/devicemngr/internal/config"
	"github.com/netpulse/devicemngr/internal/snapshot"
)

func loadSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	snap, err := config.Load(context.Background(), config.Options{Environ: []string{
		"SECRET_KEY=" + strings.Repeat("x", 50),
		"DB_PASSWORD=hunter2-password",
	}})
	require.NoError(t, err)
	return snap
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"--env-file", "dev.env", "-p", "-f", "yaml", "--serve"})
	require.NoError(t, err)
	assert.Equal(t, "dev.env", o.envFile)
	assert.True(t, o.print)
	assert.True(t, o.serve)
	assert.False(t, o.checkDB)
	assert.Equal(t, formatYAML, o.format)

	_, err = parseFlags([]string{"--format", "xml"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--bogus"})
	assert.Error(t, err)
}

func TestRender_Text(t *testing.T) {
	snap := loadSnapshot(t)

	var buf bytes.Buffer
	require.NoError(t, render(&buf, snap, formatText))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, snap.Len()+1)
	assert.True(t, strings.HasPrefix(lines[0], "SECTION"))
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), snapshot.Placeholder)
}

func TestRender_JSONAndYAML(t *testing.T) {
	snap := loadSnapshot(t)

	var jbuf bytes.Buffer
	require.NoError(t, render(&jbuf, snap, formatJSON))
	var fromJSON map[string]map[string]string
	require.NoError(t, json.Unmarshal(jbuf.Bytes(), &fromJSON))

	var ybuf bytes.Buffer
	require.NoError(t, render(&ybuf, snap, formatYAML))
	var fromYAML map[string]map[string]string
	require.NoError(t, yaml.Unmarshal(ybuf.Bytes(), &fromYAML))

	assert.Equal(t, snap.Redacted(), fromJSON)
	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, snapshot.Placeholder, fromJSON[config.SecDatabase]["PASSWORD"])
}

func TestRender_UnknownFormat(t *testing.T) {
	assert.Error(t, render(&bytes.Buffer{}, loadSnapshot(t), "xml"))
}
