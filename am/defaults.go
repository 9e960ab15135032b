package am

import (
	"github.com/spf13/viper"
	"github.com/teranos/kgmap/graph"
)

const (
	// DefaultDirPermissions is used for ~/.kgmap and config backups
	DefaultDirPermissions  = 0750
	DefaultFilePermissions = 0644

	// DefaultSourceDebounceMS is the quiet period before input changes trigger a render
	DefaultSourceDebounceMS = 250
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Graph reconciliation and focus defaults
	v.SetDefault("graph.containment_type", graph.DefaultContainmentType)
	v.SetDefault("graph.content_trace_types", graph.DefaultContentTraceTypes)
	v.SetDefault("graph.anchor_type", graph.AnchorLinkType)
	v.SetDefault("graph.id_suffix", graph.DefaultContentSuffix)
	v.SetDefault("graph.id_prefixes", graph.DefaultTypePrefixes)
	v.SetDefault("graph.default_status_filter", string(graph.StatusFilterActive))
	v.SetDefault("graph.dimmed_node_opacity", graph.DefaultDimmedNodeOpacity)
	v.SetDefault("graph.dimmed_edge_opacity", graph.DefaultDimmedEdgeOpacity)

	// Source defaults
	v.SetDefault("source.dir", ".")
	v.SetDefault("source.watch", false)
	v.SetDefault("source.debounce_ms", DefaultSourceDebounceMS)

	// Server defaults (server.port intentionally unset: nil means DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{"http://localhost", "http://127.0.0.1"})
	v.SetDefault("server.client_messages_per_second", 20.0)
	v.SetDefault("server.client_message_burst", 40)

	// Log file rotation defaults (only used when log.file is set)
	v.SetDefault("log.json", false)
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
}

// BindEnvVars binds settings that are commonly overridden per-process
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("source.dir", "KGMAP_SOURCE_DIR")
	v.BindEnv("server.port", "KGMAP_SERVER_PORT")
	v.BindEnv("log.file", "KGMAP_LOG_FILE")
	v.BindEnv("log.json", "KGMAP_LOG_JSON")
}

// GetServerPort returns the configured server port, or DefaultServerPort when unset
func GetServerPort() int {
	cfg, err := Load()
	if err != nil || cfg.Server.Port == nil {
		return DefaultServerPort
	}
	return *cfg.Server.Port
}
