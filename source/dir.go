package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
)

// Layout under a source directory
const (
	historyName  = "history"
	SnapshotsDir = "snapshots"
	DiffsDir     = "diffs"

	// diffSeparator joins the two version ids of a diff file name: <from>__<to>
	diffSeparator = "__"
)

// Dir reads versioned graph files from a directory:
//
//	history.json          versions, most recent first
//	snapshots/<id>.json   full graph per version
//	diffs/<from>__<to>.json
//
// Every file may be .yaml or .yml instead.
type Dir struct {
	Root string
}

// NewDir returns a Dir rooted at root
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// History returns every known version, most recent first.
// Without a history file the snapshot file names are listed instead.
func (d *Dir) History() ([]graph.Version, error) {
	path, err := d.find(d.Root, historyName)
	if err == nil {
		var versions []graph.Version
		err := d.decodeFile(path, func(f *os.File, format Format) error {
			var derr error
			versions, derr = DecodeHistory(f, format)
			return derr
		})
		return versions, err
	}
	if !errors.IsNotFoundError(err) {
		return nil, err
	}
	return d.listSnapshots()
}

// Latest returns the most recent version
func (d *Dir) Latest() (graph.Version, error) {
	versions, err := d.History()
	if err != nil {
		return graph.Version{}, err
	}
	if len(versions) == 0 {
		return graph.Version{}, errors.NewNotFoundError("no versions in %s", d.Root)
	}
	return versions[0], nil
}

// Snapshot reads the full graph for one version
func (d *Dir) Snapshot(version string) (graph.Snapshot, error) {
	if err := validateVersionID(version); err != nil {
		return graph.Snapshot{}, err
	}
	path, err := d.find(filepath.Join(d.Root, SnapshotsDir), version)
	if err != nil {
		return graph.Snapshot{}, errors.Wrapf(err, "snapshot %s", version)
	}

	var snap graph.Snapshot
	err = d.decodeFile(path, func(f *os.File, format Format) error {
		var derr error
		snap, derr = DecodeSnapshot(f, format)
		return derr
	})
	return snap, err
}

// Diff reads the comparison from one version to another
func (d *Dir) Diff(from, to string) (*graph.DiffResponse, error) {
	if err := validateVersionID(from); err != nil {
		return nil, err
	}
	if err := validateVersionID(to); err != nil {
		return nil, err
	}
	path, err := d.find(filepath.Join(d.Root, DiffsDir), from+diffSeparator+to)
	if err != nil {
		return nil, errors.Wrapf(err, "diff %s..%s", from, to)
	}

	var diff *graph.DiffResponse
	err = d.decodeFile(path, func(f *os.File, format Format) error {
		var derr error
		diff, derr = DecodeDiff(f, format)
		return derr
	})
	return diff, err
}

// Selection names the versions one render compares. An empty Version means
// the latest; an empty CompareTo means no diff.
type Selection struct {
	Version   string `json:"version,omitempty"`
	CompareTo string `json:"compare_to,omitempty"`
}

// Load reads the snapshot and optional diff a selection names
func (d *Dir) Load(sel Selection) (graph.Snapshot, *graph.DiffResponse, error) {
	version := sel.Version
	if version == "" {
		latest, err := d.Latest()
		if err != nil {
			return graph.Snapshot{}, nil, err
		}
		version = latest.ID
	}

	snap, err := d.Snapshot(version)
	if err != nil {
		return graph.Snapshot{}, nil, err
	}
	if sel.CompareTo == "" || sel.CompareTo == version {
		return snap, nil, nil
	}

	diff, err := d.Diff(sel.CompareTo, version)
	if err != nil {
		return graph.Snapshot{}, nil, err
	}
	return snap, diff, nil
}

// find locates base + one of the supported extensions inside dir
func (d *Dir) find(dir, base string) (string, error) {
	for _, ext := range extensions {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.NewNotFoundError("%s not found in %s", base, dir)
}

func (d *Dir) decodeFile(path string, fn func(*os.File, Format) error) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if err := fn(f, format); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return nil
}

// listSnapshots derives a history from snapshot files, newest modification first
func (d *Dir) listSnapshots() ([]graph.Version, error) {
	entries, err := os.ReadDir(filepath.Join(d.Root, SnapshotsDir))
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("no history or snapshots in %s", d.Root)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list snapshots in %s", d.Root)
	}

	var versions []graph.Version
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatFromPath(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		versions = append(versions, graph.Version{
			ID:        strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			CreatedAt: info.ModTime().UTC(),
		})
	}

	sortNewestFirst(versions)
	return versions, nil
}

// sortNewestFirst orders versions by creation time, newest first, then by id
func sortNewestFirst(versions []graph.Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		if !versions[i].CreatedAt.Equal(versions[j].CreatedAt) {
			return versions[i].CreatedAt.After(versions[j].CreatedAt)
		}
		return versions[i].ID > versions[j].ID
	})
}

// validateVersionID rejects ids that would escape the source directory
func validateVersionID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.Contains(id, diffSeparator) {
		return errors.NewInvalidRequestError("invalid version id %q", id)
	}
	return nil
}
