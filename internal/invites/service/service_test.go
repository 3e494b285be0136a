package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/internal/invites/provider"
	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/magicontap/tapdash/internal/invites/store/drivers/sqlite"
	"github.com/magicontap/tapdash/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu    sync.Mutex
	err   error
	calls []provider.Invite
}

func (f *fakeSender) SendInvite(_ context.Context, inv provider.Invite) (provider.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inv)
	if f.err != nil {
		return provider.User{}, f.err
	}
	return provider.User{ID: uuid.NewString(), Email: inv.Email}, nil
}

func (f *fakeSender) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSender) last() provider.Invite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// clock is a settable time source shared by everything under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "invites.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fixture struct {
	store  store.Store
	sender *fakeSender
	clock  *clock
	issuer *Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newTestStore(t)
	sender := &fakeSender{}
	clk := newClock()

	iss := NewIssuer(st, sender, nil, IssuerConfig{})
	iss.now = clk.Now

	return &fixture{store: st, sender: sender, clock: clk, issuer: iss}
}

func testCtx() context.Context {
	return slogx.WithContext(context.Background(), slogx.Discard())
}

var (
	admin      = domain.Caller{UserID: "1f0c6a7e-0f6b-4b8e-9d1a-2a7d4b9c5e01", Email: "ops@magicontap.com", Role: domain.RoleAdmin}
	superadmin = domain.Caller{UserID: "6b1e3c2a-90aa-4d57-8a0f-1d3b5e7c9f02", Email: "root@magicontap.com", Role: domain.RoleSuperadmin}
	customer   = domain.Caller{UserID: "a3d5f7b9-1c2e-4f60-8b7a-9c0d1e2f3a03", Email: "bar@example.com", Role: domain.RoleCustomer}
)
