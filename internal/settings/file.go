// Package settings stores and validates the user's Ghost connection.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

// Store persists settings.
type Store interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, s domain.Settings) error
}

// fileDocument is the on-disk layout. Grants live next to the settings so
// a single-process deployment keeps its permissions across restarts.
type fileDocument struct {
	domain.Settings `yaml:",inline"`
	Grants          []string `yaml:"grants,omitempty"`
}

// FileStore keeps settings and permission grants in a YAML file readable
// only by its owner. It implements Store and permission.GrantStore.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns zero settings when the file does not exist yet.
func (f *FileStore) Load(_ context.Context) (domain.Settings, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	doc, err := f.read()
	return doc.Settings, err
}

// Save replaces the settings, keeping stored grants.
func (f *FileStore) Save(_ context.Context, s domain.Settings) error {
	return f.update(func(doc *fileDocument) bool {
		doc.Settings = s
		return true
	})
}

func (f *FileStore) AddGrant(_ context.Context, pattern string) error {
	return f.update(func(doc *fileDocument) bool {
		if slices.Contains(doc.Grants, pattern) {
			return false
		}
		doc.Grants = append(doc.Grants, pattern)
		return true
	})
}

func (f *FileStore) RemoveGrant(_ context.Context, pattern string) error {
	return f.update(func(doc *fileDocument) bool {
		i := slices.Index(doc.Grants, pattern)
		if i < 0 {
			return false
		}
		doc.Grants = slices.Delete(doc.Grants, i, i+1)
		return true
	})
}

func (f *FileStore) Grants(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	doc, err := f.read()
	return doc.Grants, err
}

// update applies fn to the current document and writes it back when fn
// reports a change.
func (f *FileStore) update(fn func(doc *fileDocument) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if !fn(&doc) {
		return nil
	}
	return f.write(doc)
}

// read must be called with mu held.
func (f *FileStore) read() (fileDocument, error) {
	var doc fileDocument
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fileDocument{}, fmt.Errorf("parse settings %s: %w", f.path, err)
	}
	return doc, nil
}

// write replaces the file atomically. Must be called with mu held.
func (f *FileStore) write(doc fileDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
