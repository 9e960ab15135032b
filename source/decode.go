// Package source loads graph snapshots, version diffs and version history
// from JSON or YAML files.
package source

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
	"gopkg.in/yaml.v3"
)

// Format is a supported input encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// extensions are tried in this order when a file is looked up without one
var extensions = []string{".json", ".yaml", ".yml"}

// FormatFromPath picks the decoder for a file by its extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(errors.ErrUnsupportedFormat, "%s: expected .json, .yaml or .yml", path)
	}
}

// DecodeSnapshot reads one full graph state
func DecodeSnapshot(r io.Reader, format Format) (graph.Snapshot, error) {
	var snap graph.Snapshot
	if err := decode(r, format, &snap); err != nil {
		return graph.Snapshot{}, errors.Wrap(err, "failed to decode snapshot")
	}
	return snap, nil
}

// DecodeDiff reads a version comparison. A bare payload without the
// diff/summary envelope is accepted too.
func DecodeDiff(r io.Reader, format Format) (*graph.DiffResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read diff")
	}

	var envelope struct {
		Diff    *graph.DiffPayload `json:"diff" yaml:"diff"`
		Summary graph.DiffSummary  `json:"summary" yaml:"summary"`
	}
	if err := decode(bytes.NewReader(data), format, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode diff")
	}
	if envelope.Diff != nil {
		return &graph.DiffResponse{Diff: *envelope.Diff, Summary: envelope.Summary}, nil
	}

	var payload graph.DiffPayload
	if err := decode(bytes.NewReader(data), format, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode diff payload")
	}
	return &graph.DiffResponse{Diff: payload}, nil
}

// DecodeHistory reads the version list, most recent first. Both a bare
// list and an object with a "versions" key are accepted.
func DecodeHistory(r io.Reader, format Format) ([]graph.Version, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read history")
	}

	var versions []graph.Version
	if err := decode(bytes.NewReader(data), format, &versions); err == nil {
		return versions, nil
	}

	var wrapped struct {
		Versions []graph.Version `json:"versions" yaml:"versions"`
	}
	if err := decode(bytes.NewReader(data), format, &wrapped); err != nil {
		return nil, errors.Wrap(err, "failed to decode history")
	}
	return wrapped.Versions, nil
}

func decode(r io.Reader, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		return json.NewDecoder(r).Decode(v)
	case FormatYAML:
		err := yaml.NewDecoder(r).Decode(v)
		if err == io.EOF {
			// Empty document
			return nil
		}
		return err
	default:
		return errors.Wrapf(errors.ErrUnsupportedFormat, "format %q", format)
	}
}
