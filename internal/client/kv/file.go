package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// DefaultFile is the file used by FileStore when no path is given.
const DefaultFile = "storage.json"

// FileStore persists all keys in a single JSON document on disk. Every
// Set and Remove rewrites the document before returning.
type FileStore struct {
	path   string
	mu     sync.Mutex
	values map[string][]byte
}

type fileDocument struct {
	Values map[string][]byte `json:"values"`
}

// OpenFile loads the store kept at path, starting empty if the file does
// not exist yet.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultFile
	}
	fs := &FileStore{path: path, values: make(map[string][]byte)}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	f, err := os.Open(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return storageErr("open", "", err)
	}
	defer f.Close()

	var doc fileDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return storageErr("open", "", fmt.Errorf("decode %s: %w", fs.path, err))
	}
	if doc.Values != nil {
		fs.values = doc.Values
	}
	return nil
}

// save writes the document to a temporary file and renames it over the
// old one, so a crash never leaves a truncated store behind.
func (fs *FileStore) save() error {
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".kv-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(fileDocument{Values: fs.values}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}

func (fs *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (fs *FileStore) Set(_ context.Context, key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	prev, had := fs.values[key]
	fs.values[key] = slices.Clone(value)
	if err := fs.save(); err != nil {
		if had {
			fs.values[key] = prev
		} else {
			delete(fs.values, key)
		}
		return storageErr("set", key, err)
	}
	return nil
}

func (fs *FileStore) Remove(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	prev, had := fs.values[key]
	if !had {
		return nil
	}
	delete(fs.values, key)
	if err := fs.save(); err != nil {
		fs.values[key] = prev
		return storageErr("remove", key, err)
	}
	return nil
}

func (fs *FileStore) Close() error { return nil }
