// Package snapshot persists the settled constellation layout on any
// hackpadfs filesystem: the OS disk for the CLI, IndexedDB in the browser,
// memory in tests.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"
	"time"

	"github.com/hack-pad/hackpadfs"
)

// Version of the on-disk format.
const Version = 1

// ErrNotFound is returned by Load when nothing was saved yet.
var ErrNotFound = errors.New("snapshot not found")

// NodePosition is a node's settled position.
type NodePosition struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Fixed bool    `json:"fixed,omitempty"`
}

// Camera is the viewport transform at save time.
type Camera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Snapshot is one saved layout.
type Snapshot struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"savedAt"`
	Camera  Camera         `json:"camera"`
	Nodes   []NodePosition `json:"nodes"`
	Links   []string       `json:"links"`
}

// Position looks up a node's saved position.
func (s Snapshot) Position(id string) (NodePosition, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodePosition{}, false
}

// Store reads and writes one snapshot file.
type Store struct {
	FS   hackpadfs.FS
	Path string
	mu   sync.Mutex
}

// NewStore binds a store to a file path inside fsys. Paths follow io/fs
// rules: slash separated, no leading slash.
func NewStore(fsys hackpadfs.FS, name string) (*Store, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("invalid snapshot path %q", name)
	}
	return &Store{FS: fsys, Path: name}, nil
}

// Save writes snap, creating parent directories as needed.
func (s *Store) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Version = Version
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := path.Dir(s.Path); dir != "." {
		if err := hackpadfs.MkdirAll(s.FS, dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot dir: %w", err)
		}
	}
	if err := hackpadfs.WriteFullFile(s.FS, s.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

// Load reads the saved snapshot.
func (s *Store) Load() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := hackpadfs.ReadFile(s.FS, s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != Version {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}
