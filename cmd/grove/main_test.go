package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/akmonengine/grove/gltfio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sapling = filepath.Join("..", "..", "scenefile", "testdata", "sapling.yaml")

// =============================================================================
// Config
// =============================================================================

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want Config
	}{
		{
			name: "defaults",
			toml: "",
			want: DefaultConfig(),
		},
		{
			name: "overrides",
			toml: "scene = \"tree.yaml\"\nfps = 30.0\nduration = 2.5\nworkers = 4\nlog_level = \"debug\"\nexport = \"out.glb\"\ndump = true\n",
			want: Config{Scene: "tree.yaml", FPS: 30, Duration: 2.5, Workers: 4, LogLevel: "debug", Export: "out.glb", Dump: true},
		},
		{
			name: "partial",
			toml: "scene = \"tree.yaml\"\n",
			want: Config{Scene: "tree.yaml", FPS: defaultFPS, Duration: defaultDuration, Workers: 1, LogLevel: "info"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.toml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		toml     string
		contains string
	}{
		{"zero fps", "fps = 0.0", "fps"},
		{"negative fps", "fps = -30.0", "fps"},
		{"negative duration", "duration = -1.0", "duration"},
		{"unknown level", "log_level = \"loud\"", "log_level"},
		{"short pick", "pick = [1.0, 2.0]", "pick"},
		{"unknown field", "colour = \"red\"", "toml"},
		{"invalid toml", "fps = = 3", "toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.toml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := Config{LogLevel: tt.level}.Level()
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("grove.toml")
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.FPS)
	assert.Equal(t, 2, cfg.Workers)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadConfig_SceneRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	absolute := filepath.Join(dir, "elsewhere", "tree.yaml")

	tests := []struct {
		name  string
		scene string
		want  string
	}{
		{"relative", "scenes/tree.yaml", filepath.Join(dir, "scenes", "tree.yaml")},
		{"absolute", absolute, absolute},
		{"unset", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			require.NoError(t, os.WriteFile(path, []byte("scene = "+strconv.Quote(tt.scene)+"\n"), 0o644))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Scene)
		})
	}
}

// =============================================================================
// Run
// =============================================================================

func TestRun(t *testing.T) {
	export := filepath.Join(t.TempDir(), "sapling.glb")
	cfg := DefaultConfig()
	cfg.Scene = sapling
	cfg.FPS = 10
	cfg.Duration = 5
	cfg.Workers = 2
	cfg.Export = export
	cfg.Dump = true

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))

	log := out.String()
	assert.Contains(t, log, "animation start")
	assert.Contains(t, log, "node=trunk")
	assert.Contains(t, log, "animation rest")
	assert.Contains(t, log, "skin bounds")
	assert.Contains(t, log, "frames=50")
	assert.Contains(t, log, "crown")
	assert.NotContains(t, log, "frame resolved")

	f, err := os.Open(export)
	require.NoError(t, err)
	defer f.Close()
	scene, err := gltfio.Load(f)
	require.NoError(t, err)
	assert.Len(t, scene.Skins, 1)
	require.Len(t, scene.Roots, 1)
	assert.Equal(t, "ground", scene.Roots[0].Name)
}

func TestRun_DebugLogsFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scene = sapling
	cfg.Duration = 0.1
	cfg.LogLevel = "debug"

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))
	assert.Contains(t, out.String(), "frame resolved")
}

const pairScene = `nodes:
  - name: pole
skins:
  - name: left
    bones:
      - node: pole
    vertices:
      - {position: [0, 0, 0], bones: [0], weights: [1]}
      - {position: [1, 1, 0], bones: [0], weights: [1]}
  - name: right
    bones:
      - node: pole
    vertices:
      - {position: [0.5, 0.5, 0], bones: [0], weights: [1]}
      - {position: [2, 2, 0], bones: [0], weights: [1]}
`

func TestRun_ConfigFromOtherDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pair.yaml"), []byte(pairScene), 0o644))
	config := "scene = \"pair.yaml\"\nduration = 0.5\npick = [0.75, 0.75, 0.0]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grove.toml"), []byte(config), 0o644))

	cfg, err := LoadConfig(filepath.Join(dir, "grove.toml"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))

	log := out.String()
	assert.Contains(t, log, "skins overlap skin=left other=right")
	assert.Contains(t, log, "skins at point")
	assert.Contains(t, log, "[left right]")
}

func TestRun_Errors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, run(cfg, &bytes.Buffer{}))

	cfg.Scene = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Error(t, run(cfg, &bytes.Buffer{}))
}
