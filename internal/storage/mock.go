package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MockShard creates in-memory shards.
func MockShard() Shard {
	return func(shard string) (Persistence, error) {
		return NewMockStorage(), nil
	}
}

// MockStorage keeps the values in memory in their json form.
type MockStorage struct {
	mutex    sync.RWMutex
	Elements map[Key]string
}

func NewMockStorage() *MockStorage {
	return &MockStorage{Elements: make(map[Key]string)}
}

func (m *MockStorage) Store(k Key, value interface{}) error {
	bb, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal value: %w", err)
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Elements[k] = string(bb)
	return nil
}

func (m *MockStorage) Load(k Key, value interface{}) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	v, ok := m.Elements[k]
	if !ok {
		return fmt.Errorf("not found '%v': %w", k, NotFoundErr)
	}
	if err := json.Unmarshal([]byte(v), value); err != nil {
		return fmt.Errorf("could not unmarshal value for '%v': %v: %w", k, err, CouldNotLoadErr)
	}
	return nil
}
