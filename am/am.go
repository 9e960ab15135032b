package am

import "github.com/teranos/kgmap/graph"

// Config represents the kgmap configuration
type Config struct {
	Graph  GraphConfig  `mapstructure:"graph"`
	Source SourceConfig `mapstructure:"source"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// GraphConfig configures identifier reconciliation, focus rules and type styling
type GraphConfig struct {
	ContainmentType     string   `mapstructure:"containment_type"`    // Relation followed from the focused node
	ContentTraceTypes   []string `mapstructure:"content_trace_types"` // Relations kept emphasized around focus
	AnchorType          string   `mapstructure:"anchor_type"`
	IDSuffix            string   `mapstructure:"id_suffix"`   // Empty disables suffix variants
	IDPrefixes          []string `mapstructure:"id_prefixes"` // Type prefixes ids may carry or omit
	DefaultStatusFilter string   `mapstructure:"default_status_filter"`
	DimmedNodeOpacity   float64  `mapstructure:"dimmed_node_opacity"`
	DimmedEdgeOpacity   float64  `mapstructure:"dimmed_edge_opacity"`

	NodeTypes         map[string]graph.TypeDefinition         `mapstructure:"node_types"`
	RelationshipTypes map[string]graph.RelationshipDefinition `mapstructure:"relationship_types"`
}

// SourceConfig configures where snapshots, diffs and version history are read from
type SourceConfig struct {
	Dir        string `mapstructure:"dir"`
	Watch      bool   `mapstructure:"watch"`       // Re-render when input files change
	DebounceMS int    `mapstructure:"debounce_ms"` // Quiet period before a change triggers a render
}

// ServerConfig configures the render websocket server
type ServerConfig struct {
	Port                    *int     `mapstructure:"port"` // nil = DefaultServerPort, 0 is invalid (omit for default)
	AllowedOrigins          []string `mapstructure:"allowed_origins"`
	ClientMessagesPerSecond float64  `mapstructure:"client_messages_per_second"` // 0 = unlimited
	ClientMessageBurst      int      `mapstructure:"client_message_burst"`
}

// DefaultServerPort is used when server.port is omitted
const DefaultServerPort = 8787

// LogConfig configures the optional rotated log file
type LogConfig struct {
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"` // Empty = console only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// EngineConfig converts the graph section into render engine rules.
// Empty containment or anchor types fall back to the engine defaults.
func (c *Config) EngineConfig() graph.EngineConfig {
	g := c.Graph
	cfg := graph.DefaultEngineConfig()

	cfg.Index = graph.IndexOptions{
		ContentSuffix: g.IDSuffix,
		TypePrefixes:  append([]string(nil), g.IDPrefixes...),
	}

	if g.ContainmentType != "" {
		cfg.Focus = graph.NewFocusRules(g.ContainmentType, g.ContentTraceTypes, g.DimmedNodeOpacity, g.DimmedEdgeOpacity)
	}
	if g.AnchorType != "" {
		cfg.AnchorType = g.AnchorType
	}
	if sf, ok := graph.ParseStatusFilter(g.DefaultStatusFilter); ok {
		cfg.DefaultStatusFilter = sf
	}

	if len(g.NodeTypes) > 0 {
		cfg.NodeTypes = make(map[string]graph.TypeDefinition, len(g.NodeTypes))
		for name, def := range g.NodeTypes {
			def.TypeName = name
			cfg.NodeTypes[name] = def
		}
	}
	if len(g.RelationshipTypes) > 0 {
		cfg.RelationshipTypes = make(map[string]graph.RelationshipDefinition, len(g.RelationshipTypes))
		for name, def := range g.RelationshipTypes {
			def.PredicateName = name
			cfg.RelationshipTypes[name] = def
		}
	}

	return cfg
}
