// Package diagnostics turns a running JoinDefinition's decision-cycle
// outcomes into a stream of events, fanned out to pluggable sinks
// (webhook, WebSocket, or anything else implementing Notifier).
package diagnostics

import (
	"context"
	"sync"

	"github.com/arcflow/joincore/internal/join"
)

// Outcome classifies how a fired reaction ended.
type Outcome string

const (
	OutcomeReplied Outcome = "replied"
	OutcomeNoReply Outcome = "no_reply"
	OutcomeError   Outcome = "error"
)

// Event describes one reaction firing, from match to completion.
type Event struct {
	Definition string   `json:"definition"`
	Reaction   string   `json:"reaction"`
	Values     []any    `json:"values,omitempty"`
	Outcome    Outcome  `json:"outcome,omitempty"`
	Replied    int      `json:"replied,omitempty"`
	NoReply    int      `json:"no_reply,omitempty"`
	Err        string   `json:"error,omitempty"`
	Phase      string   `json:"phase"` // "fired" or "complete"
}

// Notifier delivers events to one external sink. Implementations must
// be safe for concurrent use and should return promptly; long-running
// delivery belongs behind the notifier's own goroutine or client
// timeout, not inside Notify itself.
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, event Event) error
	Close() error
}

// Manager fans Event values out to a registry of Notifiers over a
// bounded queue, retrying each delivery with backoff before giving up.
type Manager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier

	jobs chan job
	wg   sync.WaitGroup

	logger join.Logger
}

type job struct {
	notifier Notifier
	event    Event
}

// NewManager starts a Manager with workerCount background senders
// draining a queue of size queueSize. A nil logger falls back to a
// no-op logger.
func NewManager(workerCount, queueSize int, logger join.Logger) *Manager {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = join.NewNoOpLogger()
	}

	m := &Manager{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan job, queueSize),
		logger:    logger,
	}
	for i := 0; i < workerCount; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// RegisterNotifier adds or replaces the notifier under its own ID.
func (m *Manager) RegisterNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers[n.ID()] = n
}

// UnregisterNotifier removes and closes the notifier with the given ID,
// if present.
func (m *Manager) UnregisterNotifier(id string) error {
	m.mu.Lock()
	n, ok := m.notifiers[id]
	if ok {
		delete(m.notifiers, id)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return n.Close()
}

// ListNotifiers returns the IDs of every registered notifier.
func (m *Manager) ListNotifiers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.notifiers))
	for id := range m.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue fans event out to every registered notifier. Delivery is
// non-blocking: when the shared job queue is full, the event is dropped
// for that notifier and logged, rather than stalling the decision
// cycle that produced the event.
func (m *Manager) Enqueue(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.notifiers {
		select {
		case m.jobs <- job{notifier: n, event: event}:
		default:
			m.logger.Warnf("diagnostics: queue full, dropping event for notifier %q", n.ID())
		}
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for j := range m.jobs {
		m.deliver(j)
	}
}

func (m *Manager) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := notifyWithRetry(ctx, j.notifier, j.event); err != nil {
		m.logger.Errorf("diagnostics: notifier %q failed to deliver event: %v", j.notifier.ID(), err)
	}
}

// Close stops accepting new work, waits for queued deliveries to drain,
// and closes every registered notifier.
func (m *Manager) Close() error {
	close(m.jobs)
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Observer adapts a Manager into a join.Observer, translating firing
// and completion callbacks into Events.
type Observer struct {
	definitionName string
	manager        *Manager
}

// NewObserver returns a join.Observer that enqueues one Event per
// reaction firing and one per completion, tagged with definitionName.
func NewObserver(definitionName string, manager *Manager) *Observer {
	return &Observer{definitionName: definitionName, manager: manager}
}

func (o *Observer) OnFired(reactionName string, values []any) {
	o.manager.Enqueue(Event{
		Definition: o.definitionName,
		Reaction:   reactionName,
		Values:     values,
		Phase:      "fired",
	})
}

func (o *Observer) OnComplete(reactionName string, replied, noReply int, err error) {
	outcome := OutcomeReplied
	errMsg := ""
	switch {
	case err != nil:
		outcome = OutcomeError
		errMsg = err.Error()
	case noReply > 0:
		outcome = OutcomeNoReply
	}
	o.manager.Enqueue(Event{
		Definition: o.definitionName,
		Reaction:   reactionName,
		Outcome:    outcome,
		Replied:    replied,
		NoReply:    noReply,
		Err:        errMsg,
		Phase:      "complete",
	})
}

var _ join.Observer = (*Observer)(nil)
