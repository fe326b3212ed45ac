// Package production provides production integrations: snapshot persistence,
// transition publishing, Prometheus metrics and a BadgerDB-backed slot store.
// Implements the core interfaces.

package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/comalice/counterx/internal/core"
)

// JSONPersister is a file-based persister using JSON serialization.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot core.SlotSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return writeAtomic(filepath.Join(p.dir, snapshot.SlotID+".json"), data)
}

func (p *JSONPersister) Load(ctx context.Context, slotID string) (core.SlotSnapshot, error) {
	data, err := readSnapshot(filepath.Join(p.dir, slotID+".json"), slotID)
	if err != nil {
		return core.SlotSnapshot{}, err
	}

	var snapshot core.SlotSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return core.SlotSnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snapshot.SlotID = slotID
	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot core.SlotSnapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return writeAtomic(filepath.Join(p.dir, snapshot.SlotID+".yaml"), data)
}

func (p *YAMLPersister) Load(ctx context.Context, slotID string) (core.SlotSnapshot, error) {
	data, err := readSnapshot(filepath.Join(p.dir, slotID+".yaml"), slotID)
	if err != nil {
		return core.SlotSnapshot{}, err
	}

	var snapshot core.SlotSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return core.SlotSnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snapshot.SlotID = slotID
	return snapshot, nil
}

// NewPersister returns the persister for format ("json" or "yaml") rooted at dir.
func NewPersister(format, dir string) (core.Persister, error) {
	switch format {
	case "json":
		return NewJSONPersister(dir)
	case "yaml", "yml", "":
		return NewYAMLPersister(dir)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
}

func readSnapshot(fn, slotID string) ([]byte, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("slot %q: %w", slotID, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}

// writeAtomic writes data to a temp file in the same directory and renames it
// over fn, so readers never see a half-written snapshot.
func writeAtomic(fn string, data []byte) error {
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		return fmt.Errorf("rename %s: %w", fn, err)
	}
	return nil
}
