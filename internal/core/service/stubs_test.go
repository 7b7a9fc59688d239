package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory store: accounts + ledger + rewards share one mutex so every
// mutation is a single atomic unit, mirroring the Mongo transactions.
// ---------------------------------------------------------------------------

type memStore struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	usage       map[string]*domain.DailyUsage
	completions map[string]*domain.TaskCompletion
	entries     []domain.LedgerEntry
	nextID      int

	debitErr   error // forced error for Debit
	creditErr  error // forced error for Credit
	balanceErr error // forced error for Balance
	credits    int
	debits     int
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    make(map[string]*domain.Account),
		usage:       make(map[string]*domain.DailyUsage),
		completions: make(map[string]*domain.TaskCompletion),
	}
}

func (m *memStore) seed(id string, tokens int64) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := &domain.Account{ID: id, Email: id + "@example.com", Role: domain.RoleUser, Tokens: tokens}
	m.accounts[id] = acc
	return acc
}

func (m *memStore) balance(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Tokens
}

func (m *memStore) entry(userID string, kind domain.EntryKind, delta, after int64, ref string) {
	m.entries = append(m.entries, domain.LedgerEntry{UserID: userID, Kind: kind, Delta: delta, BalanceAfter: after, Reference: ref})
}

// --- ports.Ledger ---

func (m *memStore) Debit(_ context.Context, userID string, amount int64, ref string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debitErr != nil {
		return 0, m.debitErr
	}
	acc, ok := m.accounts[userID]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if acc.Tokens < amount {
		return 0, domain.ErrInsufficientBalance
	}
	acc.Tokens -= amount
	m.debits++
	m.entry(userID, domain.EntryDebit, -amount, acc.Tokens, ref)
	return acc.Tokens, nil
}

func (m *memStore) Credit(_ context.Context, userID string, amount int64, kind domain.EntryKind, ref string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creditErr != nil {
		return 0, m.creditErr
	}
	acc, ok := m.accounts[userID]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	acc.Tokens += amount
	m.credits++
	m.entry(userID, kind, amount, acc.Tokens, ref)
	return acc.Tokens, nil
}

func (m *memStore) SetBalance(_ context.Context, userID string, amount int64, ref string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[userID]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	delta := amount - acc.Tokens
	acc.Tokens = amount
	m.entry(userID, domain.EntryAdminSet, delta, acc.Tokens, ref)
	return acc.Tokens, nil
}

func (m *memStore) AddBalance(_ context.Context, userID string, delta int64, ref string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[userID]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if acc.Tokens+delta < 0 {
		return 0, domain.ErrInsufficientBalance
	}
	acc.Tokens += delta
	m.entry(userID, domain.EntryAdminAdd, delta, acc.Tokens, ref)
	return acc.Tokens, nil
}

func (m *memStore) Balance(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balanceErr != nil {
		return 0, m.balanceErr
	}
	acc, ok := m.accounts[userID]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	return acc.Tokens, nil
}

func (m *memStore) usageRec(userID, day string) *domain.DailyUsage {
	key := userID + "|" + day
	u, ok := m.usage[key]
	if !ok {
		u = &domain.DailyUsage{UserID: userID, Day: day}
		m.usage[key] = u
	}
	return u
}

func (m *memStore) IncrementUsage(_ context.Context, userID, day string, seconds int64) (*domain.DailyUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.usageRec(userID, day)
	u.SecondsUsed += seconds
	clone := *u
	return &clone, nil
}

func (m *memStore) AddUsage(_ context.Context, userID, day string, delta int64) (*domain.DailyUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.usageRec(userID, day)
	u.SecondsUsed += delta
	if u.SecondsUsed < 0 {
		u.SecondsUsed = 0
	}
	clone := *u
	return &clone, nil
}

func (m *memStore) ResetUsage(_ context.Context, userID, day string) (*domain.DailyUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.usageRec(userID, day)
	u.SecondsUsed = 0
	clone := *u
	return &clone, nil
}

func (m *memStore) Usage(_ context.Context, userID, day string) (*domain.DailyUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *m.usageRec(userID, day)
	return &clone, nil
}

// --- ports.RewardRepository ---

func (m *memStore) MarkComplete(_ context.Context, userID, taskID string, at time.Time) (*domain.TaskCompletion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + taskID
	if rec, ok := m.completions[key]; ok {
		clone := *rec
		return &clone, false, nil
	}
	rec := &domain.TaskCompletion{UserID: userID, TaskID: taskID, Completed: true, CompletedAt: at}
	m.completions[key] = rec
	clone := *rec
	return &clone, true, nil
}

func (m *memStore) ApproveAndCredit(_ context.Context, userID, taskID string, reward int64, reviewer string) (*domain.TaskCompletion, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.completions[userID+"|"+taskID]
	if !ok {
		return nil, 0, domain.ErrTaskNotCompleted
	}
	if rec.Rewarded {
		return nil, 0, domain.ErrAlreadyRewarded
	}
	acc, ok := m.accounts[userID]
	if !ok {
		return nil, 0, domain.ErrAccountNotFound
	}
	now := time.Now().UTC()
	rec.Rewarded = true
	rec.RewardedAt = &now
	rec.RewardedBy = reviewer
	acc.Tokens += reward
	m.credits++
	m.entry(userID, domain.EntryReward, reward, acc.Tokens, "task:"+taskID)
	clone := *rec
	return &clone, acc.Tokens, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]domain.TaskCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TaskCompletion
	for _, rec := range m.completions {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *memStore) ListPending(_ context.Context, limit int) ([]domain.TaskCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TaskCompletion
	for _, rec := range m.completions {
		if rec.Completed && !rec.Rewarded {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- ports.AccountRepository ---

func (m *memStore) Create(_ context.Context, acc *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == acc.Email {
			return nil, domain.ErrUserExists
		}
	}
	m.nextID++
	clone := *acc
	clone.ID = fmt.Sprintf("acc-%d", m.nextID)
	m.accounts[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *memStore) FindByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (m *memStore) UpdateSafety(_ context.Context, id string, s domain.SafetySettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.AlertConsent = s.AlertConsent
	a.TrustedContacts = s.TrustedContacts
	a.EmergencyName = s.EmergencyName
	a.EmergencyPhone = s.EmergencyPhone
	return nil
}

func (m *memStore) UpdateVoice(_ context.Context, id, voiceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.VoiceID = voiceID
	return nil
}

func (m *memStore) UpdateRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Role = role
	return nil
}

// ---------------------------------------------------------------------------
// Conversation + AI stubs
// ---------------------------------------------------------------------------

type stubTurns struct {
	mu        sync.Mutex
	turns     []domain.Turn
	appendErr error
	recentErr error
	clock     time.Time
}

func (r *stubTurns) Append(_ context.Context, turns ...*domain.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	if r.clock.IsZero() {
		r.clock = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	}
	for _, t := range turns {
		r.clock = r.clock.Add(time.Millisecond)
		t.ID = fmt.Sprintf("turn-%d", len(r.turns)+1)
		t.CreatedAt = r.clock
		r.turns = append(r.turns, *t)
	}
	return nil
}

func (r *stubTurns) Recent(_ context.Context, userID string, limit int) ([]domain.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	var out []domain.Turn
	for _, t := range r.turns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *stubTurns) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns)
}

type stubDetector struct {
	mu     sync.Mutex
	crisis bool
	err    error
	calls  int
}

func (d *stubDetector) Detect(_ context.Context, _ string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.crisis, d.err
}

type stubResponder struct {
	mu      sync.Mutex
	reply   *ports.ResponderReply
	err     error
	calls   int
	lastReq ports.ResponderRequest
	lastCtx error
}

func (r *stubResponder) Respond(ctx context.Context, req ports.ResponderRequest) (*ports.ResponderReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastCtx = ctx.Err()
	r.lastReq = req
	if r.err != nil {
		return nil, r.err
	}
	if r.reply != nil {
		return r.reply, nil
	}
	return &ports.ResponderReply{Text: "I hear you. Tell me more."}, nil
}

type stubSynth struct {
	audio   string
	lastVID string
	calls   int
}

func (s *stubSynth) Synthesize(_ context.Context, _ string, voiceID string) string {
	s.calls++
	s.lastVID = voiceID
	return s.audio
}

type stubBackend struct {
	audio string
	err   error
	calls int
}

func (b *stubBackend) Synthesize(_ context.Context, _ string, _ string) (string, error) {
	b.calls++
	return b.audio, b.err
}

type stubAlertQueue struct {
	mu       sync.Mutex
	requests []ports.AlertRequest
	full     bool
}

func (q *stubAlertQueue) Enqueue(req ports.AlertRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.requests = append(q.requests, req)
	return true
}

func (q *stubAlertQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

type stubGuard struct {
	seen     map[string]bool
	err      error
	released int
}

func (g *stubGuard) Claim(_ context.Context, userID, key string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	k := userID + ":" + key
	if g.seen[k] {
		return false, nil
	}
	g.seen[k] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, userID, key string) error {
	g.released++
	delete(g.seen, userID+":"+key)
	return nil
}

type stubCache struct {
	mu          sync.Mutex
	values      map[string]int64
	invalidated int
}

func (c *stubCache) Get(_ context.Context, userID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[userID]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, userID string, bal int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]int64)
	}
	c.values[userID] = bal
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, userID)
	c.invalidated++
	return nil
}

// blockingDetector and blockingResponder never answer until ctx is done.
type blockingDetector struct{}

func (blockingDetector) Detect(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

type blockingResponder struct{}

func (blockingResponder) Respond(ctx context.Context, _ ports.ResponderRequest) (*ports.ResponderReply, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
