// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
)

// mockCollector es un mock de ports.Collector para tests del executor
type mockCollector struct {
	name         string
	runFunc      func(ctx context.Context, req ports.Request) (domain.FindingSet, error)
	runCallCount int32

	mu      sync.Mutex
	lastReq ports.Request
}

func newMockCollector(name string) *mockCollector {
	return &mockCollector{name: name}
}

func (m *mockCollector) Name() string {
	return m.name
}

func (m *mockCollector) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	atomic.AddInt32(&m.runCallCount, 1)
	m.mu.Lock()
	m.lastReq = req
	m.mu.Unlock()

	if m.runFunc != nil {
		return m.runFunc(ctx, req)
	}
	return domain.FindingSet{}, nil
}

func (m *mockCollector) calls() int {
	return int(atomic.LoadInt32(&m.runCallCount))
}

func (m *mockCollector) request() ports.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

// mockCollectorWithFindings creates a mock that returns fixed findings
func mockCollectorWithFindings(name string, findings domain.FindingSet) *mockCollector {
	mock := newMockCollector(name)
	mock.runFunc = func(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
		return findings, nil
	}
	return mock
}

// mockCollectorWithError creates a mock that always fails
func mockCollectorWithError(name string, err error) *mockCollector {
	mock := newMockCollector(name)
	mock.runFunc = func(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
		return nil, err
	}
	return mock
}

// mockCollectorBlocking creates a mock that waits for ctx (or forever if ignoreCtx)
func mockCollectorBlocking(name string, ignoreCtx bool) *mockCollector {
	mock := newMockCollector(name)
	mock.runFunc = func(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
		if ignoreCtx {
			select {}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return mock
}

// credentialedMock exige una credencial
type credentialedMock struct {
	*mockCollector
	credential string
}

func (c *credentialedMock) RequiredCredential() string {
	return c.credential
}

// mockResolver resuelve desde un mapa fijo
type mockResolver map[string]ports.Collector

func newMockResolver(collectors ...ports.Collector) mockResolver {
	r := mockResolver{}
	for _, c := range collectors {
		r[c.Name()] = c
	}
	return r
}

func (r mockResolver) Resolve(name string) (ports.Collector, error) {
	c, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCollector, name)
	}
	return c, nil
}

// mockNotifier es un mock de ports.Notifier para tests
type mockNotifier struct {
	mu              sync.Mutex
	notifyFunc      func(ctx context.Context, event ports.Event) error
	notifyCallCount int
	events          []ports.Event
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{events: []ports.Event{}}
}

func (m *mockNotifier) Notify(ctx context.Context, event ports.Event) error {
	m.mu.Lock()
	m.notifyCallCount++
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, event)
	}
	return nil
}

func (m *mockNotifier) Close() error {
	return nil
}

// getEventsByType returns events filtered by type
func (m *mockNotifier) getEventsByType(eventType ports.EventType) []ports.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []ports.Event
	for _, e := range m.events {
		if e.Type == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// mustTarget classifies a raw target or panics
func mustTarget(raw string) domain.Target {
	t, err := domain.NewTarget(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// workflowOf builds a workflow from bare collector names
func workflowOf(names ...string) domain.Workflow {
	wf := domain.Workflow{Name: "test"}
	for _, n := range names {
		wf.Steps = append(wf.Steps, domain.NewStep(n))
	}
	return wf
}

// successResult builds a successful result for aggregator tests
func successResult(collector string, findings domain.FindingSet) domain.CollectorResult {
	return domain.NewSuccessResult(collector, "user@example.com", findings, testStart, testStart)
}
