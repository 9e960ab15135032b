package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/teranos/kgmap/errors"
)

const configFileName = "am.toml"

// snapshot is one resolution of the config cascade
type snapshot struct {
	v       *viper.Viper
	cfg     *Config
	err     error                 // Unmarshal failure, returned by Load
	files   []string              // Files merged, lowest precedence first
	sources map[string]SourceInfo // Flattened key -> file that last set it
}

var (
	cacheMu sync.Mutex
	cache   *snapshot
)

// current returns the cached cascade, resolving it on first use or after Reset
func current() *snapshot {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache == nil {
		cache = resolve()
	}
	return cache
}

// resolve layers defaults < /etc < ~/.kgmap < nearest project am.toml < KGMAP_* env
func resolve() *snapshot {
	v := viper.New()
	v.SetEnvPrefix("KGMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)
	SetDefaults(v)

	snap := &snapshot{v: v, sources: map[string]SourceInfo{}}
	seen := map[string]bool{}
	for _, cp := range configPaths() {
		if seen[cp.path] {
			continue
		}
		seen[cp.path] = true

		layer, err := readTOML(cp.path)
		if err != nil {
			continue
		}
		// MergeConfigMap sits below AutomaticEnv, so env still wins
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			continue
		}
		snap.files = append(snap.files, cp.path)
		for _, key := range layer.AllKeys() {
			snap.sources[key] = SourceInfo{Source: cp.source, Path: cp.path}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		snap.err = errors.Wrap(err, "failed to unmarshal config")
	} else {
		snap.cfg = &cfg
	}
	return snap
}

func readTOML(path string) (*viper.Viper, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// Load returns the effective configuration. The result is cached until Reset.
func Load() (*Config, error) {
	snap := current()
	return snap.cfg, snap.err
}

// GetViper exposes the merged settings for `am show` and `am get`
func GetViper() *viper.Viper {
	return current().v
}

// Get returns one dotted key from the merged settings
func Get(key string) interface{} {
	return current().v.Get(key)
}

// LoadWithViper unmarshals a caller-built viper, bypassing the cascade
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// LoadFromFile reads a single TOML file over the defaults. Environment
// variables are not consulted.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return cfg, nil
}

// Reset drops the cached cascade so the next Load re-reads files and env
func Reset() {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
}

// UserConfigPath returns ~/.kgmap/am.toml, or empty when the home directory is unknown
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kgmap", configFileName)
}

// findProjectConfig returns the nearest am.toml at or above the working directory
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type configPath struct {
	path   string
	source ConfigSource
}

// configPaths lists candidate config files from lowest to highest precedence
func configPaths() []configPath {
	paths := []configPath{{filepath.Join("/etc/kgmap", configFileName), SourceSystem}}
	if user := UserConfigPath(); user != "" {
		paths = append(paths, configPath{user, SourceUser})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, configPath{project, SourceProject})
	}
	return paths
}
