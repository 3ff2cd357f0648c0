package store

import (
	"sync"

	"github.com/cuemby/siloscript/pkg/metrics"
)

// Memory is an in-memory Store, intended for tests and ephemeral
// deployments. Entries are keyed by Partition then Key.
type Memory struct {
	mu   sync.RWMutex
	data map[Partition]map[Key]Value
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[Partition]map[Key]Value),
	}
}

func (m *Memory) Get(p Partition, key Key) (Value, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOperationDuration, "get", "memory")

	m.mu.RLock()
	defer m.mu.RUnlock()

	bucket, ok := m.data[p]
	if !ok {
		metrics.StoreErrorsTotal.WithLabelValues("memory", "not_found").Inc()
		return nil, ErrNotFound
	}
	value, ok := bucket[key]
	if !ok {
		metrics.StoreErrorsTotal.WithLabelValues("memory", "not_found").Inc()
		return nil, ErrNotFound
	}
	out := make(Value, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Put(p Partition, key Key, value Value) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOperationDuration, "put", "memory")

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[p]
	if !ok {
		bucket = make(map[Key]Value)
		m.data[p] = bucket
	}
	stored := make(Value, len(value))
	copy(stored, value)
	bucket[key] = stored
	return nil
}

func (m *Memory) Delete(p Partition, key Key) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOperationDuration, "delete", "memory")

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[p]
	if !ok {
		metrics.StoreErrorsTotal.WithLabelValues("memory", "not_found").Inc()
		return ErrNotFound
	}
	if _, ok := bucket[key]; !ok {
		metrics.StoreErrorsTotal.WithLabelValues("memory", "not_found").Inc()
		return ErrNotFound
	}
	delete(bucket, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
