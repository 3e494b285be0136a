package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())

	var v versionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	require.NotEmpty(t, v.Version)
	require.NotEmpty(t, v.GoVersion)
}

func TestMigrateAndSweepCommands(t *testing.T) {
	t.Setenv("DATABASE_FILE", filepath.Join(t.TempDir(), "invites.db"))
	t.Setenv("LOG_LEVEL", "error")

	for _, args := range [][]string{{"migrate"}, {"migrate"}, {"sweep"}} {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute(), args)
	}
}

func TestServeNeedsSupabase(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve"})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.Execute())
}
