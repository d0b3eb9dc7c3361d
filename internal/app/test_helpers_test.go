package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/example/cadence/internal/config"
	"github.com/example/cadence/internal/ports/secondary"
)

// testNow is a fixed instant used across service tests: 09:00 UTC.
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newTestRegistry builds a registry with UTC agents "abraham" and
// "solienne" dropping at 09:00.
func newTestRegistry(t *testing.T) *ScheduleRegistry {
	t.Helper()
	reg, invalid := NewScheduleRegistry(&config.Config{
		Agents: []config.AgentConfig{
			{ID: "abraham", Timezone: "UTC", DropTime: "09:00", Cadence: "daily", PracticeStartDate: "2025-01-01"},
			{ID: "solienne", Timezone: "UTC", DropTime: "09:00", Cadence: "daily", PracticeStartDate: "2025-01-01"},
		},
	})
	if len(invalid) != 0 {
		t.Fatalf("test registry invalid agents: %v", invalid)
	}
	return reg
}

// mockStreakRepository implements secondary.StreakRepository in memory
// with real version checking.
type mockStreakRepository struct {
	mu      sync.Mutex
	records map[string]*secondary.StreakRecord

	// putErrs is consumed one error per Put call before the version
	// check, for conflict injection.
	putErrs []error
	puts    int
}

func newMockStreakRepository() *mockStreakRepository {
	return &mockStreakRepository{records: make(map[string]*secondary.StreakRecord)}
}

func (m *mockStreakRepository) Initialize(ctx context.Context, agentID, practiceStartDate, cadence string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[agentID]; ok {
		return fmt.Errorf("agent %s already initialized", agentID)
	}
	m.records[agentID] = &secondary.StreakRecord{
		AgentID:           agentID,
		PracticeStartDate: practiceStartDate,
		Cadence:           cadence,
		Version:           1,
	}
	return nil
}

func (m *mockStreakRepository) Get(ctx context.Context, agentID string) (*secondary.StreakRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[agentID]
	if !ok {
		return nil, fmt.Errorf("streak for %s: %w", agentID, secondary.ErrNotFound)
	}
	out := *rec
	return &out, nil
}

func (m *mockStreakRepository) Put(ctx context.Context, record *secondary.StreakRecord, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if len(m.putErrs) > 0 {
		err := m.putErrs[0]
		m.putErrs = m.putErrs[1:]
		if err != nil {
			return err
		}
	}
	stored, ok := m.records[record.AgentID]
	if !ok {
		return secondary.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return secondary.ErrConflict
	}
	out := *record
	out.Version = expectedVersion + 1
	m.records[record.AgentID] = &out
	record.Version = out.Version
	return nil
}

func (m *mockStreakRepository) List(ctx context.Context) ([]*secondary.StreakRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.StreakRecord
	for _, id := range []string{"abraham", "solienne"} {
		if rec, ok := m.records[id]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// seed installs a record directly, bypassing the engine.
func (m *mockStreakRepository) seed(rec *secondary.StreakRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Version == 0 {
		rec.Version = 1
	}
	if rec.Cadence == "" {
		rec.Cadence = "daily"
	}
	m.records[rec.AgentID] = rec
}

// mockDropRepository implements secondary.DropRepository in memory.
type mockDropRepository struct {
	mu    sync.Mutex
	drops map[string]*secondary.DropRecord // agentID|localDay
}

func newMockDropRepository() *mockDropRepository {
	return &mockDropRepository{drops: make(map[string]*secondary.DropRecord)}
}

func dropKey(agentID, localDay string) string { return agentID + "|" + localDay }

func (m *mockDropRepository) Create(ctx context.Context, drop *secondary.DropRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dropKey(drop.AgentID, drop.LocalDay)
	if _, ok := m.drops[key]; ok {
		return secondary.ErrDuplicateDrop
	}
	m.drops[key] = drop
	return nil
}

func (m *mockDropRepository) GetByAgentDay(ctx context.Context, agentID, localDay string) (*secondary.DropRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if drop, ok := m.drops[dropKey(agentID, localDay)]; ok {
		return drop, nil
	}
	return nil, nil
}

func (m *mockDropRepository) ListByAgent(ctx context.Context, agentID string, limit int) ([]*secondary.DropRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.DropRecord
	for _, d := range m.drops {
		if d.AgentID == agentID {
			out = append(out, d)
		}
	}
	return out, nil
}

// mockDraftRepository implements secondary.DraftRepository over a slice.
type mockDraftRepository struct {
	mu     sync.Mutex
	drafts []*secondary.DraftRecord
}

func (m *mockDraftRepository) Add(ctx context.Context, draft *secondary.DraftRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, draft)
	return nil
}

func (m *mockDraftRepository) ClaimNext(ctx context.Context, agentID string) (*secondary.DraftRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drafts {
		if d.AgentID == agentID && !d.Used {
			d.Used = true
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockDraftRepository) List(ctx context.Context, agentID string, includeUsed bool) ([]*secondary.DraftRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.DraftRecord
	for _, d := range m.drafts {
		if d.AgentID == agentID && (includeUsed || !d.Used) {
			out = append(out, d)
		}
	}
	return out, nil
}

// mockEventWriter records audit events.
type mockEventWriter struct {
	mu     sync.Mutex
	events []string // "agentID/kind"
}

func (m *mockEventWriter) Write(ctx context.Context, agentID, kind, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, agentID+"/"+kind)
	return nil
}

func (m *mockEventWriter) kinds(agentID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	prefix := agentID + "/"
	for _, e := range m.events {
		if len(e) > len(prefix) && e[:len(prefix)] == prefix {
			out = append(out, e[len(prefix):])
		}
	}
	return out
}

// mockGenerator dispatches to a per-strategy function table.
type mockGenerator struct {
	byStrategy map[string]func(agentID string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, agentID, strategy string) (string, error) {
	if fn, ok := m.byStrategy[strategy]; ok {
		return fn(agentID)
	}
	return "", secondary.ErrNotAvailable
}

// mockNotifier records notifications and signals delivery.
type mockNotifier struct {
	mu        sync.Mutex
	delivered []string // "agentID/dropID"
	err       error
	signal    chan struct{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{signal: make(chan struct{}, 16)}
}

func (m *mockNotifier) Notify(ctx context.Context, agentID, dropID string) error {
	m.mu.Lock()
	m.delivered = append(m.delivered, agentID+"/"+dropID)
	err := m.err
	m.mu.Unlock()
	m.signal <- struct{}{}
	return err
}
