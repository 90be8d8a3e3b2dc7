// Package kv provides the local key-value store that backs the client's
// state containers. Values are read and written whole; there are no
// partial updates.
package kv

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("kv: key not found")
	// ErrStorage matches every failure of the underlying storage medium.
	ErrStorage = errors.New("kv: storage failure")
)

// Store is a synchronous key-value store over string keys.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases the resources held by the store.
	Close() error
}

// Error describes a failed storage operation.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("kv %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("kv %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports every *Error as ErrStorage.
func (e *Error) Is(target error) bool { return target == ErrStorage }

func storageErr(op, key string, err error) error {
	return &Error{Op: op, Key: key, Err: err}
}
