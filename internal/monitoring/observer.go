// Package monitoring adapts the observer/metrics pattern to the node-DAG
// domain: callers get structured logs and an --explain snapshot without
// the executor itself knowing about either concern.
package monitoring

import (
	"sync"
	"time"

	"github.com/smilemakc/orchestrate/internal/domain"
)

// Observer reacts to lifecycle events of one Solve/Compile run and the
// nodes within it. A field can be the zero value where the caller has
// nothing more specific (e.g. no node yet at run start).
type Observer interface {
	OnRunStarted(runID, prompt string)
	OnRunCompleted(runID string, status domain.OverallStatus, duration time.Duration)
	OnNodeStarted(runID string, node domain.Node)
	OnNodeCompleted(runID string, result domain.NodeResult, duration time.Duration)
	OnNodeCancelled(runID string, nodeID, reason string)
}

// Manager fans out lifecycle notifications to every registered Observer,
// the same broadcast shape as a classic observer manager.
type Manager struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers an Observer. It takes the write lock, so it waits for
// any notification in flight (which holds the read lock) to finish.
func (m *Manager) Add(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

func (m *Manager) RunStarted(runID, prompt string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnRunStarted(runID, prompt)
	}
}

func (m *Manager) RunCompleted(runID string, status domain.OverallStatus, duration time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnRunCompleted(runID, status, duration)
	}
}

func (m *Manager) NodeStarted(runID string, node domain.Node) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnNodeStarted(runID, node)
	}
}

func (m *Manager) NodeCompleted(runID string, result domain.NodeResult, duration time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnNodeCompleted(runID, result, duration)
	}
}

func (m *Manager) NodeCancelled(runID string, nodeID, reason string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnNodeCancelled(runID, nodeID, reason)
	}
}
