package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	httpapi "github.com/magicontap/tapdash/internal/invites/http"
	"github.com/magicontap/tapdash/internal/invites/provider"
	"github.com/magicontap/tapdash/internal/invites/service"
	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/magicontap/tapdash/internal/invites/store/drivers/sqlite"
	"github.com/magicontap/tapdash/pkg/invitesdk"
	"github.com/magicontap/tapdash/pkg/jwtx"
	"github.com/magicontap/tapdash/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const dashboardOrigin = "https://tap-magic-dashboard.lovable.app"

var secret = []byte("super-secret-jwt-token-with-at-least-32-characters")

type stubSender struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubSender) SendInvite(_ context.Context, inv provider.Invite) (provider.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return provider.User{}, s.err
	}
	return provider.User{ID: uuid.NewString(), Email: inv.Email}, nil
}

type testServer struct {
	handler http.Handler
	store   store.Store
	sender  *stubSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "invites.db")))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	sender := &stubSender{}
	verifier := jwtx.NewVerifier(jwtx.VerifyOptions{Audience: []string{"authenticated"}}, nil, secret)

	router := httpapi.NewRouter(verifier, "test", st, nil, slogx.Discard())
	router.Issuer = service.NewIssuer(st, sender, nil, service.IssuerConfig{})
	router.SharedSecret = true
	router.AllowedOrigins = []string{dashboardOrigin}
	router.ApplyRoutes()

	return &testServer{handler: router, store: st, sender: sender}
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	now := time.Now()
	c := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5f0c7a6e-1d1e-4b53-8d69-0c4f0b3a9e21",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:       "ops@magicontap.com",
		Role:        "authenticated",
		AppMetadata: jwtx.AppMetadata{Role: role},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	require.NoError(t, err)
	return "Bearer " + s
}

func (ts *testServer) do(t *testing.T, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) countFor(t *testing.T, email string) int {
	t.Helper()
	rows, err := ts.store.Invitations().ListInvitations(context.Background(), store.ListInvitationsParams{Email: email, Limit: 100})
	require.NoError(t, err)
	return len(rows)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestIssue_OK(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/invitations", bearer(t, "admin"),
		`{"email":"a@x.com","role":"admin","redirectTo":"https://app/signin"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[invitesdk.IssueResponse](t, rec)
	require.True(t, res.Success)
	require.NotEmpty(t, res.Message)
	require.Empty(t, res.Status)
	require.Equal(t, "a@x.com", res.Invitation.Email)
	require.Equal(t, "admin", res.Invitation.Role)
	require.Equal(t, "pending", res.Invitation.Status)
	require.Equal(t, "https://app/signin", res.Invitation.RedirectTo)
	require.NotNil(t, res.Invitation.ExpiresAt)

	require.Equal(t, 1, ts.countFor(t, "a@x.com"))
}

func TestIssue_DuplicateIs409(t *testing.T) {
	ts := newTestServer(t)
	auth := bearer(t, "admin")

	rec := ts.do(t, http.MethodPost, "/v1/invitations", auth, `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[invitesdk.IssueResponse](t, rec)

	rec = ts.do(t, http.MethodPost, "/v1/invitations", auth, `{"email":"a@x.com","role":"admin"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	er := decode[invitesdk.ErrorResponse](t, rec)
	require.Equal(t, invitesdk.CodeDuplicatePending, er.Code)
	require.NotEmpty(t, er.Error)
	require.NotNil(t, er.Invitation)
	require.Equal(t, first.Invitation.ID, er.Invitation.ID)

	require.Equal(t, 1, ts.countFor(t, "a@x.com"))
	require.Equal(t, 1, ts.sender.calls)
}

func TestIssue_ProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"network", provider.ErrUnavailable, http.StatusInternalServerError, provider.DefaultErrorMessage},
		{"rejected", &provider.Error{StatusCode: 422, Message: "A user with this email address has already been registered"}, 422, "A user with this email address has already been registered"},
		{"bad service key", &provider.Error{StatusCode: 401, Message: "Invalid API key"}, http.StatusInternalServerError, "Invalid API key"},
		{"provider down", &provider.Error{StatusCode: 502, Message: "Bad gateway"}, http.StatusInternalServerError, "Bad gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.sender.err = tt.err

			rec := ts.do(t, http.MethodPost, "/v1/invitations", bearer(t, "admin"), `{"email":"a@x.com"}`)
			require.Equal(t, tt.wantCode, rec.Code)

			er := decode[invitesdk.ErrorResponse](t, rec)
			require.Equal(t, invitesdk.CodeDispatchFailed, er.Code)
			require.Equal(t, tt.wantMsg, er.Error)

			require.Zero(t, ts.countFor(t, "a@x.com"))
		})
	}
}

func TestIssue_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing email", `{}`, "Missing email"},
		{"blank email", `{"email":"   "}`, "Missing email"},
		{"invalid email", `{"email":"nope"}`, "Invalid email"},
		{"relative redirect", `{"email":"a@x.com","redirectTo":"/signin"}`, "redirectTo must be an absolute http(s) URL"},
		{"unknown role", `{"email":"a@x.com","role":"owner"}`, "Invalid role"},
		{"not json", `email=a@x.com`, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(t, http.MethodPost, "/v1/invitations", bearer(t, "admin"), tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			er := decode[invitesdk.ErrorResponse](t, rec)
			require.Equal(t, tt.wantMsg, er.Error)
			require.Equal(t, invitesdk.CodeInvalidRequest, er.Code)
			require.Zero(t, ts.sender.calls)
		})
	}
}

func TestIssue_AuthAndRoles(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/invitations", "", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/invitations", "Bearer garbage", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// No dashboard role at all is a customer.
	for _, role := range []string{"", "customer"} {
		rec = ts.do(t, http.MethodPost, "/v1/invitations", bearer(t, role), `{"email":"a@x.com"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/v1/invitations", bearer(t, "admin"), `{"email":"a@x.com","role":"superadmin"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/invitations", bearer(t, "superadmin"), `{"email":"a@x.com","role":"superadmin"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, 1, ts.sender.calls)
}

func TestIssue_LegacyPath(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/functions/v1/send-invitation", bearer(t, "admin"), `{"email":"legacy@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[invitesdk.IssueResponse](t, rec)
	require.Equal(t, "invited", res.Status)
	require.True(t, res.Success)
	require.Equal(t, "customer", res.Invitation.Role)
	require.Equal(t, service.DefaultRedirectURL, res.Invitation.RedirectTo)
}

func TestIssue_CORS(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/v1/invitations", "/functions/v1/send-invitation"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", dashboardOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "apikey,authorization,content-type,x-client-info")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code, path)
		require.Equal(t, dashboardOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))
	}

	// Unknown origins get no CORS headers.
	req := httptest.NewRequest(http.MethodOptions, "/v1/invitations", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// Real requests carry the header too, errors included.
	req = httptest.NewRequest(http.MethodPost, "/v1/invitations", strings.NewReader(`{"email":"a@x.com"}`))
	req.Header.Set("Origin", dashboardOrigin)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, dashboardOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListGetResend(t *testing.T) {
	ts := newTestServer(t)
	auth := bearer(t, "admin")

	var ids []string
	for _, email := range []string{"one@x.com", "two@x.com", "three@x.com"} {
		rec := ts.do(t, http.MethodPost, "/v1/invitations", auth, `{"email":"`+email+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		ids = append(ids, decode[invitesdk.IssueResponse](t, rec).Invitation.ID)
	}

	rec := ts.do(t, http.MethodGet, "/v1/invitations?limit=2", auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[invitesdk.ListResponse](t, rec)
	require.Len(t, page.Invitations, 2)
	require.Equal(t, ids[2], page.Invitations[0].ID)
	require.Equal(t, ids[1], page.NextBefore)

	rec = ts.do(t, http.MethodGet, "/v1/invitations?limit=2&before="+page.NextBefore, auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[invitesdk.ListResponse](t, rec)
	require.Len(t, page.Invitations, 1)
	require.Empty(t, page.NextBefore)

	rec = ts.do(t, http.MethodGet, "/v1/invitations?limit=abc", auth, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodGet, "/v1/invitations?status=lost", auth, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/invitations/"+ids[0], auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[invitesdk.InvitationResponse](t, rec)
	require.Equal(t, "one@x.com", got.Invitation.Email)

	rec = ts.do(t, http.MethodGet, "/v1/invitations/01J8Z6Q6XKZ6Y0P3W3C4D5E6F7", auth, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/invitations/"+ids[0]+"/resend", auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[invitesdk.IssueResponse](t, rec)
	require.Equal(t, ids[0], res.Invitation.ID)
	require.Equal(t, 4, ts.sender.calls)

	rec = ts.do(t, http.MethodGet, "/v1/invitations", bearer(t, "customer"), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/livez", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[invitesdk.HealthResponse](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[invitesdk.HealthResponse](t, rec)
	require.Equal(t, "ok", h.Status)
	require.NotNil(t, h.Checks)
	require.Equal(t, "ok", h.Checks.Database)
	require.Equal(t, "ok", h.Checks.Verifier)
	require.Zero(t, h.Checks.OutboxPending)
}

func TestReadyz_NoKeys(t *testing.T) {
	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "invites.db")))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	h := httpapi.ReadyzHandler(time.Now(), "test", st, jwtx.NewKeySet(), false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	res := decode[invitesdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", res.Status)
	require.Contains(t, res.Checks.Verifier, "no keys")
}
