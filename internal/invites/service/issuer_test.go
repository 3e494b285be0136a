package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/internal/invites/provider"
	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/stretchr/testify/require"
)

func TestIssue_Success(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	inv, err := f.issuer.Issue(ctx, admin, IssueRequest{
		Email:      "  New.Owner@Example.com ",
		Role:       "admin",
		RedirectTo: "https://dash.example.com/welcome",
	})
	require.NoError(t, err)

	require.Equal(t, "new.owner@example.com", inv.Email)
	require.Equal(t, domain.RoleAdmin, inv.Role)
	require.Equal(t, domain.StatusPending, inv.Status)
	require.Equal(t, admin.UserID, inv.InvitedBy)
	require.NotEmpty(t, inv.ProviderUserID)
	require.NotNil(t, inv.SentAt)
	require.NotNil(t, inv.ExpiresAt)
	require.Equal(t, f.clock.Now().Add(DefaultInviteTTL), *inv.ExpiresAt)

	require.Equal(t, 1, f.sender.count())
	sent := f.sender.last()
	require.Equal(t, "new.owner@example.com", sent.Email)
	require.Equal(t, "https://dash.example.com/welcome", sent.RedirectTo)
	require.Equal(t, domain.RoleAdmin, sent.Role)

	got, err := f.store.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.ProviderUserID, got.ProviderUserID)
	require.NotNil(t, got.SentAt)

	// Nothing left for the outbox.
	rows, err := f.store.Dispatches().ListDispatchesForInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestIssue_Defaults(t *testing.T) {
	f := newFixture(t)

	inv, err := f.issuer.Issue(testCtx(), admin, IssueRequest{Email: "someone@example.com"})
	require.NoError(t, err)
	require.Equal(t, domain.RoleCustomer, inv.Role)
	require.Equal(t, DefaultRedirectURL, inv.RedirectTo)
	require.Equal(t, DefaultRedirectURL, f.sender.last().RedirectTo)
}

func TestIssue_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  IssueRequest
		want error
	}{
		{"empty email", IssueRequest{}, ErrInvalidEmail},
		{"blank email", IssueRequest{Email: "   "}, ErrInvalidEmail},
		{"not an email", IssueRequest{Email: "not-an-email"}, ErrInvalidEmail},
		{"unknown role", IssueRequest{Email: "a@example.com", Role: "owner"}, ErrInvalidRole},
		{"relative redirect", IssueRequest{Email: "a@example.com", RedirectTo: "/signin"}, ErrInvalidRedirect},
		{"non-http redirect", IssueRequest{Email: "a@example.com", RedirectTo: "javascript:alert(1)"}, ErrInvalidRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.issuer.Issue(testCtx(), admin, tt.req)
			require.ErrorIs(t, err, tt.want)
			require.True(t, IsValidation(err))
			require.Zero(t, f.sender.count())
		})
	}
}

func TestIssue_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	_, err := f.issuer.Issue(ctx, customer, IssueRequest{Email: "a@example.com"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.issuer.Issue(ctx, admin, IssueRequest{Email: "a@example.com", Role: "superadmin"})
	require.ErrorIs(t, err, ErrForbiddenRole)

	require.Zero(t, f.sender.count())

	inv, err := f.issuer.Issue(ctx, superadmin, IssueRequest{Email: "a@example.com", Role: "SuperAdmin"})
	require.NoError(t, err)
	require.Equal(t, domain.RoleSuperadmin, inv.Role)
}

func TestIssue_DuplicatePending(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	first, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = f.issuer.Issue(ctx, admin, IssueRequest{Email: "DUP@example.com", Role: "admin"})
	require.ErrorIs(t, err, ErrDuplicatePending)

	var dup *DuplicatePendingError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, first.ID, dup.Existing.ID)

	// No second email, no second row.
	require.Equal(t, 1, f.sender.count())
	rows, err := f.store.Invitations().ListInvitations(ctx, store.ListInvitationsParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, domain.RoleCustomer, rows[0].Role)
}

func TestIssue_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "race@example.com"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicatePending):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, dups)

	_, err := f.store.Invitations().GetPendingInvitationByEmail(ctx, "race@example.com")
	require.NoError(t, err)
}

func TestIssue_ProviderFailureLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	f.sender.fail(&provider.Error{StatusCode: 422, Message: "User already registered"})

	_, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "taken@example.com"})
	require.ErrorIs(t, err, ErrDispatchFailed)

	var de *DispatchError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 422, de.StatusCode)
	require.Equal(t, "User already registered", de.Message)

	_, err = f.store.Invitations().GetPendingInvitationByEmail(ctx, "taken@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	sum, err := f.store.Dispatches().Summary(ctx)
	require.NoError(t, err)
	require.Zero(t, sum.Backlog())

	// The address can be tried again straight away.
	f.sender.fail(nil)
	_, err = f.issuer.Issue(ctx, admin, IssueRequest{Email: "taken@example.com"})
	require.NoError(t, err)
}

func TestIssue_ProviderUnreachable(t *testing.T) {
	f := newFixture(t)

	f.sender.fail(provider.ErrUnavailable)

	_, err := f.issuer.Issue(testCtx(), admin, IssueRequest{Email: "x@example.com"})
	var de *DispatchError
	require.True(t, errors.As(err, &de))
	require.Zero(t, de.StatusCode)
	require.Equal(t, provider.DefaultErrorMessage, de.Message)
	require.ErrorIs(t, err, provider.ErrUnavailable)
}

// failingTxStore fails the nth WithTx call and passes everything else
// through.
type failingTxStore struct {
	store.Store

	mu    sync.Mutex
	calls int
	failN int
}

var errTxFailed = errors.New("disk I/O error")

func (s *failingTxStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls == s.failN
	s.mu.Unlock()

	if fail {
		return errTxFailed
	}
	return s.Store.WithTx(ctx, fn)
}

func TestIssue_RecordWriteFailsAfterSend(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	// First tx stores the invitation, the second records the send.
	f.issuer.Store = &failingTxStore{Store: f.store, failN: 2}

	inv, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "kept@example.com"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, inv.Status)
	require.Nil(t, inv.SentAt)
	require.Equal(t, 1, f.sender.count())

	got, err := f.store.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Nil(t, got.SentAt)

	// The leased outbox row is still there for the dispatcher.
	rows, err := f.store.Dispatches().ListDispatchesForInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, domain.DispatchProcessing, rows[0].Status)
}

func TestIssue_OverduePendingIsReplaced(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	old, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "late@example.com"})
	require.NoError(t, err)

	f.clock.Advance(DefaultInviteTTL + time.Minute)

	fresh, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "late@example.com"})
	require.NoError(t, err)
	require.NotEqual(t, old.ID, fresh.ID)

	got, err := f.store.Invitations().GetInvitationByID(ctx, old.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, got.Status)
}

func TestIssue_ExpiredDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	old, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "back@example.com"})
	require.NoError(t, err)

	// Only pending rows hold the email, so flipping the old one out of the
	// way has to free it.
	f.clock.Advance(DefaultInviteTTL)
	n, err := f.store.Invitations().ExpireInvitations(ctx, f.clock.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = f.issuer.Issue(ctx, admin, IssueRequest{Email: "back@example.com"})
	require.NoError(t, err)

	_, err = f.issuer.Get(ctx, admin, old.ID)
	require.NoError(t, err)
}

func TestResend(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		f := newFixture(t)
		ctx := testCtx()

		inv, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "again@example.com"})
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		again, err := f.issuer.Resend(ctx, admin, inv.ID)
		require.NoError(t, err)
		require.Equal(t, inv.ID, again.ID)
		require.Equal(t, 2, f.sender.count())
		require.True(t, again.SentAt.After(*inv.SentAt))

		rows, err := f.store.Dispatches().ListDispatchesForInvitation(ctx, inv.ID)
		require.NoError(t, err)
		require.Empty(t, rows)
	})

	t.Run("expired is reissued", func(t *testing.T) {
		f := newFixture(t)
		ctx := testCtx()

		inv, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "stale@example.com", Role: "admin"})
		require.NoError(t, err)

		f.clock.Advance(DefaultInviteTTL + time.Second)
		fresh, err := f.issuer.Resend(ctx, admin, inv.ID)
		require.NoError(t, err)
		require.NotEqual(t, inv.ID, fresh.ID)
		require.Equal(t, domain.RoleAdmin, fresh.Role)
		require.Equal(t, domain.StatusPending, fresh.Status)

		old, err := f.store.Invitations().GetInvitationByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusExpired, old.Status)
	})

	t.Run("failure keeps the record", func(t *testing.T) {
		f := newFixture(t)
		ctx := testCtx()

		inv, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: "keep@example.com"})
		require.NoError(t, err)

		f.sender.fail(&provider.Error{StatusCode: 429, Message: "rate limited"})
		_, err = f.issuer.Resend(ctx, admin, inv.ID)
		require.ErrorIs(t, err, ErrDispatchFailed)

		got, err := f.store.Invitations().GetInvitationByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusPending, got.Status)

		rows, err := f.store.Dispatches().ListDispatchesForInvitation(ctx, inv.ID)
		require.NoError(t, err)
		require.Empty(t, rows)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.issuer.Resend(testCtx(), admin, "01HZY8M3T0000000000000000X")
		require.ErrorIs(t, err, ErrInvitationNotFound)

		_, err = f.issuer.Resend(testCtx(), admin, "nope")
		require.ErrorIs(t, err, ErrInvitationNotFound)
	})

	t.Run("role above caller", func(t *testing.T) {
		f := newFixture(t)
		ctx := testCtx()

		inv, err := f.issuer.Issue(ctx, superadmin, IssueRequest{Email: "big@example.com", Role: "superadmin"})
		require.NoError(t, err)

		_, err = f.issuer.Resend(ctx, admin, inv.ID)
		require.ErrorIs(t, err, ErrForbiddenRole)
	})
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	var ids []string
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		inv, err := f.issuer.Issue(ctx, admin, IssueRequest{Email: email})
		require.NoError(t, err)
		ids = append(ids, inv.ID)
		f.clock.Advance(time.Millisecond)
	}

	page, err := f.issuer.List(ctx, admin, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Invitations, 2)
	require.Equal(t, ids[2], page.Invitations[0].ID)
	require.Equal(t, ids[1], page.Invitations[1].ID)
	require.Equal(t, ids[1], page.NextBefore)

	page, err = f.issuer.List(ctx, admin, ListFilter{Limit: 2, Before: page.NextBefore})
	require.NoError(t, err)
	require.Len(t, page.Invitations, 1)
	require.Equal(t, ids[0], page.Invitations[0].ID)
	require.Empty(t, page.NextBefore)

	page, err = f.issuer.List(ctx, admin, ListFilter{Email: " B@Example.com"})
	require.NoError(t, err)
	require.Len(t, page.Invitations, 1)

	page, err = f.issuer.List(ctx, admin, ListFilter{Status: "expired"})
	require.NoError(t, err)
	require.Empty(t, page.Invitations)

	_, err = f.issuer.List(ctx, admin, ListFilter{Status: "bogus"})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.issuer.List(ctx, admin, ListFilter{Before: "bogus"})
	require.ErrorIs(t, err, ErrInvalidCursor)

	_, err = f.issuer.List(ctx, customer, ListFilter{})
	require.ErrorIs(t, err, ErrForbidden)
}
