package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/kgmap/errors"
)

// ConfigSource names the layer of the cascade a value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/kgmap/am.toml
	SourceUser        ConfigSource = "user"        // ~/.kgmap/am.toml
	SourceProject     ConfigSource = "project"     // nearest am.toml upward from cwd
	SourceEnvironment ConfigSource = "environment" // KGMAP_* variables
)

// SourceInfo locates one value: a file path or an env var name
type SourceInfo struct {
	Source ConfigSource
	Path   string
}

// SettingInfo is one effective leaf setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection is what `am where` prints
type ConfigIntrospection struct {
	Files    []string      `json:"files"` // lowest precedence first
	Settings []SettingInfo `json:"settings"`
}

// GetConfigIntrospection reports every leaf setting with the layer that set it
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	snap := current()
	if snap.err != nil {
		return nil, errors.Wrap(snap.err, "failed to load config for introspection")
	}

	intro := &ConfigIntrospection{
		Files:    append([]string(nil), snap.files...),
		Settings: []SettingInfo{},
	}
	walkSettings(snap.v.AllSettings(), "", func(key string, value interface{}) {
		si := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if fromFile, ok := snap.sources[key]; ok {
			si = fromFile
		}
		if env := EnvVarName(key); os.Getenv(env) != "" {
			si = SourceInfo{Source: SourceEnvironment, Path: env}
		}
		intro.Settings = append(intro.Settings, SettingInfo{
			Key:        key,
			Value:      value,
			Source:     si.Source,
			SourcePath: si.Path,
		})
	})
	return intro, nil
}

// walkSettings visits nested viper settings leaf by leaf in key order
func walkSettings(settings map[string]interface{}, prefix string, visit func(key string, value interface{})) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if nested, ok := settings[k].(map[string]interface{}); ok {
			walkSettings(nested, full, visit)
			continue
		}
		visit(full, settings[k])
	}
}

// CountBySource tallies settings per layer
func (ci *ConfigIntrospection) CountBySource() map[ConfigSource]int {
	counts := make(map[ConfigSource]int)
	for _, s := range ci.Settings {
		counts[s.Source]++
	}
	return counts
}

// EnvVarName returns the environment variable that overrides a dotted key
func EnvVarName(key string) string {
	return "KGMAP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
