// File: internal/usecase/mock_test.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"planvault/internal/domain"
	"planvault/internal/domain/model"
	"planvault/internal/domain/ports/repository"
)

// participant lets the in-memory tx manager undo writes when the callback
// fails, mirroring the all-or-nothing semantics of the real TxManager.
type participant interface {
	snapshot() any
	restore(any)
}

// memTxManager runs the callback directly and rolls the registered
// participants back on error.
type memTxManager struct {
	participants []participant
}

func newMemTxManager(ps ...participant) *memTxManager {
	return &memTxManager{participants: ps}
}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	snaps := make([]any, len(m.participants))
	for i, p := range m.participants {
		snaps[i] = p.snapshot()
	}
	if err := fn(ctx, nil); err != nil {
		for i, p := range m.participants {
			p.restore(snaps[i])
		}
		return err
	}
	return nil
}

// ---- settings ----

type memSettingsRepo struct {
	mu    sync.RWMutex
	store map[string]*model.RegistrySettings
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{store: make(map[string]*model.RegistrySettings)}
}

func (m *memSettingsRepo) Find(_ context.Context, _ repository.Tx, component string) (*model.RegistrySettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[component]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSettingsRepo) Create(_ context.Context, _ repository.Tx, s *model.RegistrySettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[s.Component]; ok {
		return domain.ErrAlreadyInitialized
	}
	cp := *s
	m.store[s.Component] = &cp
	return nil
}

func (m *memSettingsRepo) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]*model.RegistrySettings, len(m.store))
	for k, v := range m.store {
		s := *v
		cp[k] = &s
	}
	return cp
}

func (m *memSettingsRepo) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s.(map[string]*model.RegistrySettings)
}

// ---- payments ----

type memPaymentRepo struct {
	mu       sync.RWMutex
	store    map[uint64]*model.Payment
	nextID   uint64
	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[uint64]*model.Payment), nextID: 1}
}

func (m *memPaymentRepo) NextID(_ context.Context, _ repository.Tx) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(_ context.Context, _ repository.Tx, id uint64) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) UpdateStatusIfPending(_ context.Context, _ repository.Tx, id uint64, status model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	return true, nil
}

type paymentSnap struct {
	store  map[uint64]*model.Payment
	nextID uint64
}

func (m *memPaymentRepo) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[uint64]*model.Payment, len(m.store))
	for k, v := range m.store {
		p := *v
		cp[k] = &p
	}
	return paymentSnap{store: cp, nextID: m.nextID}
}

func (m *memPaymentRepo) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := s.(paymentSnap)
	m.store = snap.store
	m.nextID = snap.nextID
}

// ---- vouchers ----

type memVoucherRepo struct {
	mu       sync.RWMutex
	store    map[uint64]*model.Voucher
	nextID   uint64
	SaveFunc func(ctx context.Context, tx repository.Tx, v *model.Voucher) error
}

func newMemVoucherRepo() *memVoucherRepo {
	return &memVoucherRepo{store: make(map[uint64]*model.Voucher), nextID: 1}
}

func (m *memVoucherRepo) NextID(_ context.Context, _ repository.Tx) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *memVoucherRepo) Save(ctx context.Context, tx repository.Tx, v *model.Voucher) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.store[v.ID] = &cp
	return nil
}

func (m *memVoucherRepo) FindByID(_ context.Context, _ repository.Tx, id uint64) (*model.Voucher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVoucherRepo) CountExpiredUnactivated(_ context.Context, _ repository.Tx, asOf time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, v := range m.store {
		if !v.IsActive && asOf.After(v.ExpiresAt) {
			n++
		}
	}
	return n, nil
}

type voucherSnap struct {
	store  map[uint64]*model.Voucher
	nextID uint64
}

func (m *memVoucherRepo) snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[uint64]*model.Voucher, len(m.store))
	for k, v := range m.store {
		vv := *v
		cp[k] = &vv
	}
	return voucherSnap{store: cp, nextID: m.nextID}
}

func (m *memVoucherRepo) restore(s any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := s.(voucherSnap)
	m.store = snap.store
	m.nextID = snap.nextID
}

// ---- token ledger ----

// memLedger keeps balances per token/address and participates in rollback so
// a failed operation also undoes its fund movement.
type memLedger struct {
	mu           sync.Mutex
	balances     map[string]map[string]int64
	TransferFunc func(ctx context.Context, token, from, to string, amount int64) error
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]map[string]int64)}
}

func (l *memLedger) SetBalance(token, addr string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[token] == nil {
		l.balances[token] = make(map[string]int64)
	}
	l.balances[token][addr] = amount
}

func (l *memLedger) Transfer(ctx context.Context, token, from, to string, amount int64) error {
	if l.TransferFunc != nil {
		return l.TransferFunc(ctx, token, from, to, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[token] == nil {
		l.balances[token] = make(map[string]int64)
	}
	if l.balances[token][from] < amount {
		return fmt.Errorf("insufficient balance for %s", from)
	}
	l.balances[token][from] -= amount
	l.balances[token][to] += amount
	return nil
}

func (l *memLedger) Mint(_ context.Context, token, to string, amount int64) error {
	l.SetBalance(token, to, l.balanceOf(token, to)+amount)
	return nil
}

func (l *memLedger) Burn(_ context.Context, token, from string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[token][from] -= amount
	return nil
}

func (l *memLedger) Balance(_ context.Context, token, addr string) (int64, error) {
	return l.balanceOf(token, addr), nil
}

func (l *memLedger) balanceOf(token, addr string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[token][addr]
}

func (l *memLedger) snapshot() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make(map[string]map[string]int64, len(l.balances))
	for t, accts := range l.balances {
		inner := make(map[string]int64, len(accts))
		for a, v := range accts {
			inner[a] = v
		}
		cp[t] = inner
	}
	return cp
}

func (l *memLedger) restore(s any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = s.(map[string]map[string]int64)
}

// ---- auth ----

// allowAuth authorizes principals that tests explicitly allow.
type allowAuth struct {
	allowed map[string]bool
}

func newAllowAuth(principals ...string) *allowAuth {
	m := make(map[string]bool, len(principals))
	for _, p := range principals {
		m[p] = true
	}
	return &allowAuth{allowed: m}
}

func (a *allowAuth) RequireAuth(_ context.Context, principal string) error {
	if !a.allowed[principal] {
		return domain.ErrUnauthorized
	}
	return nil
}

// ---- clock ----

// fakeClock is settable so tests can travel to expiry boundaries.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

// ---- events ----

type recordedEvent struct {
	Topic   string
	Payload any
}

type memSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func newMemSink() *memSink { return &memSink{} }

func (s *memSink) Publish(_ context.Context, topic string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{Topic: topic, Payload: payload})
	return nil
}

func (s *memSink) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Topic
	}
	return out
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
