package am

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/kgmap/graph"
	"github.com/teranos/kgmap/internal/util"
)

// isolate points HOME and the working directory at a fresh temp dir so no
// system, user or project config leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(oldWd)
		Reset()
	})
	Reset()
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	// Create isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Graph.ContainmentType != graph.DefaultContainmentType {
		t.Errorf("expected default containment type %q, got %q", graph.DefaultContainmentType, cfg.Graph.ContainmentType)
	}
	if cfg.Graph.IDSuffix != ".md" {
		t.Errorf("expected default id suffix '.md', got %q", cfg.Graph.IDSuffix)
	}
	if cfg.Server.Port != nil {
		t.Errorf("expected server.port unset, got %d", *cfg.Server.Port)
	}
	if cfg.Source.DebounceMS != DefaultSourceDebounceMS {
		t.Errorf("expected default debounce %d, got %d", DefaultSourceDebounceMS, cfg.Source.DebounceMS)
	}
	assert.ElementsMatch(t, graph.DefaultContentTraceTypes, cfg.Graph.ContentTraceTypes)
	assert.Equal(t, graph.DefaultTypePrefixes, cfg.Graph.IDPrefixes)
	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"graph.anchor_type", "_anchor"},
		{"graph.default_status_filter", "active"},
		{"graph.dimmed_node_opacity", 0.15},
		{"graph.dimmed_edge_opacity", 0.08},
		{"source.dir", "."},
		{"source.watch", false},
		{"log.max_backups", 3},
		{"log.compress", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := v.Get(tt.key)
			if got != tt.expected {
				t.Errorf("default %s = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return *cfg
	}
	distance := -5.0

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"explicit port", func(c *Config) { c.Server.Port = util.Ptr(9000) }, false},
		{"zero port", func(c *Config) { c.Server.Port = util.Ptr(0) }, true},
		{"negative port", func(c *Config) { c.Server.Port = util.Ptr(-1) }, true},
		{"port out of range", func(c *Config) { c.Server.Port = util.Ptr(70000) }, true},
		{"empty containment type", func(c *Config) { c.Graph.ContainmentType = "  " }, true},
		{"unknown status filter", func(c *Config) { c.Graph.DefaultStatusFilter = "archived" }, true},
		{"status filter any case", func(c *Config) { c.Graph.DefaultStatusFilter = "Pending" }, false},
		{"node opacity above one", func(c *Config) { c.Graph.DimmedNodeOpacity = 1.5 }, true},
		{"edge opacity negative", func(c *Config) { c.Graph.DimmedEdgeOpacity = -0.1 }, true},
		{"zero opacity hides dimmed", func(c *Config) { c.Graph.DimmedEdgeOpacity = 0 }, false},
		{"node type opacity", func(c *Config) {
			c.Graph.NodeTypes = map[string]graph.TypeDefinition{"concept": {Opacity: 2}}
		}, true},
		{"negative link distance", func(c *Config) {
			c.Graph.RelationshipTypes = map[string]graph.RelationshipDefinition{"contains": {LinkDistance: &distance}}
		}, true},
		{"zero rate limit is unlimited", func(c *Config) { c.Server.ClientMessagesPerSecond = 0 }, false},
		{"negative rate limit", func(c *Config) { c.Server.ClientMessagesPerSecond = -1 }, true},
		{"negative debounce", func(c *Config) { c.Source.DebounceMS = -1 }, true},
		{"negative log backups", func(c *Config) { c.Log.MaxBackups = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngineConfig(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	cfg.Graph.ContainmentType = "part_of"
	cfg.Graph.ContentTraceTypes = []string{"cites"}
	cfg.Graph.IDSuffix = ""
	cfg.Graph.DefaultStatusFilter = "all"
	cfg.Graph.NodeTypes = map[string]graph.TypeDefinition{
		"concept": {DisplayColor: "#3498db", DisplayLabel: "Concept"},
	}
	cfg.Graph.RelationshipTypes = map[string]graph.RelationshipDefinition{
		"cites": {DisplayLabel: "Cites"},
	}

	ec := cfg.EngineConfig()

	assert.Equal(t, "part_of", ec.Focus.ContainmentType)
	assert.True(t, ec.Focus.ContentTraceTypes["cites"])
	assert.False(t, ec.Focus.ContentTraceTypes["supports"])
	assert.Equal(t, graph.DefaultDimmedNodeOpacity, ec.Focus.DimmedNodeOpacity)
	assert.Empty(t, ec.Index.ContentSuffix)
	assert.Equal(t, graph.DefaultTypePrefixes, ec.Index.TypePrefixes)
	assert.Equal(t, graph.StatusFilterAll, ec.DefaultStatusFilter)
	assert.Equal(t, graph.AnchorLinkType, ec.AnchorType)
	assert.Equal(t, "concept", ec.NodeTypes["concept"].TypeName)
	assert.Equal(t, "cites", ec.RelationshipTypes["cites"].PredicateName)
}

func TestEngineConfig_EmptyFallsBack(t *testing.T) {
	var cfg Config
	ec := cfg.EngineConfig()

	assert.Equal(t, graph.DefaultContainmentType, ec.Focus.ContainmentType)
	assert.Equal(t, graph.AnchorLinkType, ec.AnchorType)
	assert.Equal(t, graph.StatusFilterActive, ec.DefaultStatusFilter)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	content := `
[graph]
containment_type = "has_part"
id_prefixes = ["concept_"]

[graph.node_types.concept]
color = "#ff0000"
label = "Concept"

[graph.relationship_types.cites]
label = "Cites"
link_distance = 120.0

[server]
port = 9100
`
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "has_part", cfg.Graph.ContainmentType)
	assert.Equal(t, []string{"concept_"}, cfg.Graph.IDPrefixes)
	assert.Equal(t, "#ff0000", cfg.Graph.NodeTypes["concept"].DisplayColor)
	require.NotNil(t, cfg.Graph.RelationshipTypes["cites"].LinkDistance)
	assert.Equal(t, 120.0, *cfg.Graph.RelationshipTypes["cites"].LinkDistance)
	require.NotNil(t, cfg.Server.Port)
	assert.Equal(t, 9100, *cfg.Server.Port)
	// Defaults still fill what the file omits
	assert.Equal(t, ".md", cfg.Graph.IDSuffix)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("walks up to am.toml", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test1", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)
		os.WriteFile(filepath.Join(tmpDir, "test1", "am.toml"), []byte(""), DefaultFilePermissions)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if result == "" {
			t.Fatal("expected to find config file")
		}
		if !filepath.IsAbs(result) {
			t.Error("expected absolute path")
		}
		if filepath.Base(result) != "am.toml" {
			t.Errorf("expected am.toml, got %s", filepath.Base(result))
		}
	})

	t.Run("no config found", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test2", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})
}

func TestLoad_PrecedenceAndSources(t *testing.T) {
	dir := isolate(t)

	userDir := filepath.Join(dir, ".kgmap")
	require.NoError(t, os.MkdirAll(userDir, DefaultDirPermissions))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "am.toml"), []byte(`
[graph]
containment_type = "user_contains"
anchor_type = "user_anchor"
`), DefaultFilePermissions))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "am.toml"), []byte(`
[graph]
containment_type = "project_contains"
`), DefaultFilePermissions))

	t.Setenv("KGMAP_SOURCE_DIR", "/data/graphs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "project_contains", cfg.Graph.ContainmentType, "project wins over user")
	assert.Equal(t, "user_anchor", cfg.Graph.AnchorType, "user keys survive a project file that omits them")
	assert.Equal(t, "/data/graphs", cfg.Source.Dir, "env wins over files")

	intro, err := GetConfigIntrospection()
	require.NoError(t, err)

	sources := make(map[string]SettingInfo)
	for _, s := range intro.Settings {
		sources[s.Key] = s
	}
	assert.Equal(t, SourceProject, sources["graph.containment_type"].Source)
	assert.Equal(t, SourceUser, sources["graph.anchor_type"].Source)
	assert.Equal(t, SourceEnvironment, sources["source.dir"].Source)
	assert.Equal(t, "KGMAP_SOURCE_DIR", sources["source.dir"].SourcePath)
	assert.Equal(t, SourceDefault, sources["log.max_backups"].Source)
	assert.Len(t, intro.Files, 2)

	counts := intro.CountBySource()
	assert.Equal(t, 1, counts[SourceProject])
	assert.Equal(t, 1, counts[SourceUser])
	assert.Equal(t, 1, counts[SourceEnvironment])
}

func TestGetServerPort(t *testing.T) {
	isolate(t)

	if port := GetServerPort(); port != DefaultServerPort {
		t.Errorf("expected default port %d, got %d", DefaultServerPort, port)
	}
}

func TestEnvVarName(t *testing.T) {
	assert.Equal(t, "KGMAP_GRAPH_ID_SUFFIX", EnvVarName("graph.id_suffix"))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{"8080", int64(8080)},
		{"0.2", 0.2},
		{"true", true},
		{`"contains"`, "contains"},
		{"contains", "contains"},
		{`["cites", "supports"]`, []interface{}{"cites", "supports"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.raw))
		})
	}
}

func TestSetValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "am.toml")

	require.NoError(t, SetValue(path, "graph.containment_type", "part_of"))
	require.NoError(t, SetValue(path, "server.port", int64(9200)))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "part_of", cfg.Graph.ContainmentType)
	require.NotNil(t, cfg.Server.Port)
	assert.Equal(t, 9200, *cfg.Server.Port)

	// Second write rotated the first version into .back1
	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err)

	t.Run("invalid value is not written", func(t *testing.T) {
		err := SetValue(path, "graph.dimmed_node_opacity", 4.0)
		require.Error(t, err)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, graph.DefaultDimmedNodeOpacity, cfg.Graph.DimmedNodeOpacity)
	})

	t.Run("malformed key", func(t *testing.T) {
		assert.Error(t, SetValue(path, "graph..x", 1))
	})
}

func TestCreateBackupRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")

	for _, content := range []string{"one", "two", "three", "four", "five"} {
		require.NoError(t, createBackup(path))
		require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
	}

	for suffix, want := range map[string]string{".back1": "four", ".back2": "three", ".back3": "two"} {
		got, err := os.ReadFile(path + suffix)
		require.NoError(t, err)
		assert.Equal(t, want, string(got), suffix)
	}
}

func TestConfigWatcherReloads(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(path, []byte("[graph]\ncontainment_type = \"contains\"\n"), DefaultFilePermissions))

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.debouncePeriod = 20 * time.Millisecond
	defer cw.Stop()

	var reloaded atomic.Value
	cw.OnReload(func(c *Config) error {
		reloaded.Store(c.Graph.ContainmentType)
		return nil
	})
	cw.Start()

	require.NoError(t, os.WriteFile(path, []byte("[graph]\ncontainment_type = \"part_of\"\n"), DefaultFilePermissions))

	assert.Eventually(t, func() bool {
		v, _ := reloaded.Load().(string)
		return v == "part_of"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestConfigWatcherIgnoresOwnWrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), DefaultFilePermissions))

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	cw.debouncePeriod = 10 * time.Millisecond
	defer cw.Stop()

	var calls int32
	cw.OnReload(func(*Config) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	cw.MarkOwnWrite()
	assert.True(t, cw.checkOwnWrite())
	assert.False(t, cw.checkOwnWrite(), "flag clears after one check")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestConfigWatcherStop(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), DefaultFilePermissions))

	cw, err := NewConfigWatcher(path)
	require.NoError(t, err)
	SetGlobalWatcher(cw)
	cw.Start()

	require.NoError(t, cw.Stop())
	assert.NoError(t, cw.Stop(), "second Stop is a no-op")
	assert.Nil(t, active.Load(), "stopping clears the registered watcher")
}
