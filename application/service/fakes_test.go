package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/repovista/repovista/domain/repository"
	"github.com/repovista/repovista/domain/session"
)

// fakeBackend is a scriptable in-memory backend.
type fakeBackend struct {
	mu sync.Mutex

	repos   []repository.Repository
	stats   map[string]repository.Stats
	reports map[string][]repository.StatusReport

	listErr    error
	getErr     error
	createErr  error
	triggerErr error
	statsErr   error

	listCalls    int
	getCalls     int
	createCalls  int
	syncCalls    int
	triggerCalls int
	statusCalls  map[string]int
	statsCalls   map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		stats:       make(map[string]repository.Stats),
		reports:     make(map[string][]repository.StatusReport),
		statusCalls: make(map[string]int),
		statsCalls:  make(map[string]int),
	}
}

func (f *fakeBackend) List(ctx context.Context) ([]repository.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]repository.Repository(nil), f.repos...), nil
}

func (f *fakeBackend) Get(ctx context.Context, id string) (repository.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return repository.Repository{}, f.getErr
	}
	for _, r := range f.repos {
		if r.ID() == id {
			return r, nil
		}
	}
	return repository.Repository{}, nil
}

func (f *fakeBackend) Create(ctx context.Context, url string) (repository.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return repository.Repository{}, f.createErr
	}
	created := repository.New("new-id", url)
	f.repos = append(f.repos, created)
	return created, nil
}

func (f *fakeBackend) Sync(ctx context.Context) (repository.SyncSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	return repository.NewSyncSummary("sync started", len(f.repos)), nil
}

func (f *fakeBackend) TriggerIndex(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggerCalls++
	return f.triggerErr
}

// Status pops the next scripted report for id; the last report repeats.
func (f *fakeBackend) Status(ctx context.Context, id string) (repository.StatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls[id]++
	queue := f.reports[id]
	if len(queue) == 0 {
		return repository.NewStatusReport(repository.StatusDiscovered), nil
	}
	report := queue[0]
	if len(queue) > 1 {
		f.reports[id] = queue[1:]
	}
	return report, nil
}

func (f *fakeBackend) Stats(ctx context.Context, id string) (repository.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls[id]++
	if f.statsErr != nil {
		return repository.EmptyStats(), f.statsErr
	}
	if stats, ok := f.stats[id]; ok {
		return stats, nil
	}
	return repository.EmptyStats(), nil
}

func (f *fakeBackend) getCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func (f *fakeBackend) statusCallCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[id]
}

func (f *fakeBackend) statsCallCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statsCalls[id]
}

// fakePersister is an in-memory SessionPersister.
type fakePersister struct {
	mu      sync.Mutex
	session session.Session
	saves   int
	clears  int
}

func (f *fakePersister) SaveSession(s session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
	f.saves++
	return nil
}

func (f *fakePersister) LoadSession() (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *fakePersister) ClearSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = session.Session{}
	f.clears++
	return nil
}

// fakeCookies records the last cookie write.
type fakeCookies struct {
	mu     sync.Mutex
	token  string
	ttl    time.Duration
	clears int
}

func (f *fakeCookies) SetToken(token string, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.ttl = ttl
}

func (f *fakeCookies) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.clears++
}

func (f *fakeCookies) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}
