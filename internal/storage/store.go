// Package storage persists the evaluation reports.
package storage

import (
	"errors"
	"fmt"
)

var (
	// DefaultDir is the root directory of the file storage.
	DefaultDir = "file-storage"
)

// Shard creates a new storage implementation for the given shard.
type Shard func(shard string) (Persistence, error)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key of a report.
type Key struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Command string `json:"command"`
}

// Path is the file name of the key, without extension.
func (k Key) Path() string {
	return fmt.Sprintf("%s_%s_%s", k.Command, k.Kind, k.ID)
}

// Persistence stores and loads values by key.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
