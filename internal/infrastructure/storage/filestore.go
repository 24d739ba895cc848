package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"robopress/internal/domain"
	"robopress/internal/ports"
)

// ErrNoSnapshot is returned when no edition has ever been written.
var ErrNoSnapshot = errors.New("no snapshot available")

const (
	datedFilePrefix = "roblox_top5_"
	latestFileName  = "latest.json"
)

// FileStore persists editions as pretty-printed JSON in a flat directory:
// one immutable dated file per edition plus a mutable latest.json pointer.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ ports.SnapshotStore = (*FileStore)(nil)

// NewFileStore creates the snapshots directory if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshots dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Save serializes the snapshot once and writes the dated file and latest.json
// from the same bytes. Each write goes through a temp file and rename so a
// failure mid-write never truncates the previous latest.json.
func (s *FileStore) Save(ctx context.Context, snap *domain.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := domain.DateKey(snap.GeneratedAt)
	datedPath := filepath.Join(s.dir, datedFilePrefix+key+".json")
	latestPath := filepath.Join(s.dir, latestFileName)

	if err := writeAtomic(datedPath, data); err != nil {
		return "", fmt.Errorf("write dated snapshot: %w", err)
	}
	if err := writeAtomic(latestPath, data); err != nil {
		return "", fmt.Errorf("write latest snapshot: %w", err)
	}

	s.logger.Info("snapshot persisted", "date", key, "bytes", len(data))
	return key, nil
}

// Latest reads latest.json, ErrNoSnapshot when it does not exist yet.
func (s *FileStore) Latest() (*domain.Snapshot, error) {
	return s.readSnapshot(filepath.Join(s.dir, latestFileName))
}

// Previous returns the newest dated snapshot strictly before beforeKey, or
// nil when there is no earlier edition.
func (s *FileStore) Previous(beforeKey string) (*domain.Snapshot, error) {
	keys, err := s.datedKeys()
	if err != nil {
		return nil, err
	}

	prev := ""
	for _, key := range keys {
		if key < beforeKey && key > prev {
			prev = key
		}
	}
	if prev == "" {
		return nil, nil
	}

	return s.readSnapshot(filepath.Join(s.dir, datedFilePrefix+prev+".json"))
}

func (s *FileStore) datedKeys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots dir: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, datedFilePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, datedFilePrefix), ".json"))
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) readSnapshot(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot %s: %w", filepath.Base(path), err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", filepath.Base(path), err)
	}

	return &snap, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
