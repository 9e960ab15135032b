package am

import (
	"strings"

	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Graph rules
	if strings.TrimSpace(c.Graph.ContainmentType) == "" {
		return errors.New("graph.containment_type cannot be empty")
	}
	if _, ok := graph.ParseStatusFilter(c.Graph.DefaultStatusFilter); !ok {
		return errors.WithHint(
			errors.Newf("graph.default_status_filter %q is not a known filter", c.Graph.DefaultStatusFilter),
			"use one of: active, all, pending, rejected",
		)
	}
	if err := validateOpacity("graph.dimmed_node_opacity", c.Graph.DimmedNodeOpacity); err != nil {
		return err
	}
	if err := validateOpacity("graph.dimmed_edge_opacity", c.Graph.DimmedEdgeOpacity); err != nil {
		return err
	}
	for name, def := range c.Graph.NodeTypes {
		if def.Opacity != 0 {
			if err := validateOpacity("graph.node_types."+name+".opacity", def.Opacity); err != nil {
				return err
			}
		}
	}
	for name, def := range c.Graph.RelationshipTypes {
		if def.LinkDistance != nil && *def.LinkDistance <= 0 {
			return errors.Newf("graph.relationship_types.%s.link_distance must be > 0, got %f", name, *def.LinkDistance)
		}
	}

	// Source debounce: 0 = fire on every event, negative = invalid
	if c.Source.DebounceMS < 0 {
		return errors.Newf("source.debounce_ms must be >= 0, got %d", c.Source.DebounceMS)
	}

	// Server port: 0 is invalid (omit for default), negative or out of range is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.Newf("server.port must be between 1 and 65535, got %d", *c.Server.Port)
	}

	// Client rate limit: 0 = unlimited, negative = invalid
	if c.Server.ClientMessagesPerSecond < 0 {
		return errors.Newf("server.client_messages_per_second must be >= 0, got %f", c.Server.ClientMessagesPerSecond)
	}
	if c.Server.ClientMessageBurst < 0 {
		return errors.Newf("server.client_message_burst must be >= 0, got %d", c.Server.ClientMessageBurst)
	}

	// Log rotation: 0 means lumberjack's own default / no limit
	if c.Log.MaxSizeMB < 0 {
		return errors.Newf("log.max_size_mb must be >= 0, got %d", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		return errors.Newf("log.max_backups must be >= 0, got %d", c.Log.MaxBackups)
	}
	if c.Log.MaxAgeDays < 0 {
		return errors.Newf("log.max_age_days must be >= 0, got %d", c.Log.MaxAgeDays)
	}

	return nil
}

func validateOpacity(key string, value float64) error {
	if value < 0 || value > 1 {
		return errors.Newf("%s must be between 0 and 1, got %f", key, value)
	}
	return nil
}
