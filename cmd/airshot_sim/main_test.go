package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/storage/memory"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string, cfg map[string]any) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), data, 0644))
}

func TestRun_Duel(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	writeConfig(t, dir, map[string]any{
		"logsDir": filepath.Join(dir, "logs"),
		"storage": map[string]any{
			"memory": map[string]any{"outputDir": outDir, "compressOutput": false},
		},
	})

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-c", dir, "testdata/duel.json"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, out.String())
	assert.Equal(t, "duel: 6 steps, 2 airshots, 1 kills", lines[0])
	assert.Equal(t, "  1  player 2 (blue) killed by player 1 (red) via AT shot", lines[1])
	assert.Equal(t, "player 1: 1", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "ledger: "+filepath.Join(outDir, "duel_")), lines[3])

	data, err := os.ReadFile(strings.TrimPrefix(lines[3], "ledger: "))
	require.NoError(t, err)
	var export memory.SessionExport
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, "Airshot Flag", export.Plugin)
	assert.Equal(t, 0.12, export.Angle)
	assert.Len(t, export.ServerShots, 2)
	require.Len(t, export.Kills, 1)
	assert.True(t, export.Kills[0].Reattributed)

	logs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRun_ConfiguredAngle(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
	}{
		{"steep", 0.3},
		{"flat", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(viper.Reset)
			dir := t.TempDir()
			writeConfig(t, dir, map[string]any{
				"logsDir": filepath.Join(dir, "logs"),
				"airshot": map[string]any{"angle": tt.angle},
				"storage": map[string]any{
					"memory": map[string]any{"outputDir": filepath.Join(dir, "out"), "compressOutput": false},
				},
			})

			var out bytes.Buffer
			require.NoError(t, run(context.Background(), []string{"-c", dir, "-s", "testdata/duel.json"}, &out))

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			data, err := os.ReadFile(strings.TrimPrefix(lines[len(lines)-1], "ledger: "))
			require.NoError(t, err)
			var export memory.SessionExport
			require.NoError(t, json.Unmarshal(data, &export))
			assert.Equal(t, tt.angle, export.Angle)
		})
	}
}

func TestRun_NoScenario(t *testing.T) {
	t.Cleanup(viper.Reset)
	err := run(context.Background(), nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, errNoScenario)
}

func TestRun_UnknownStorage(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, map[string]any{"logsDir": filepath.Join(dir, "logs")})

	err := run(context.Background(), []string{"-c", dir, "--storage", "mongo", "testdata/duel.json"}, &bytes.Buffer{})
	assert.EqualError(t, err, "unknown storage type: mongo")
}
