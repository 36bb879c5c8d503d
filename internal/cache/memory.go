package cache

import (
	"context"
	"sync"
)

// Memory is an in-process Recent. Entries are lost on exit.
type Memory struct {
	mu     sync.Mutex
	depth  int
	titles map[string][]string
}

// NewMemory creates an in-memory Recent keeping depth titles per learner.
// A non-positive depth uses DefaultDepth.
func NewMemory(depth int) *Memory {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Memory{depth: depth, titles: make(map[string][]string)}
}

func (m *Memory) Push(_ context.Context, learnerID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]string{title}, m.titles[learnerID]...)
	if len(list) > m.depth {
		list = list[:m.depth]
	}
	m.titles[learnerID] = list
	return nil
}

func (m *Memory) List(_ context.Context, learnerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titles[learnerID]...), nil
}
