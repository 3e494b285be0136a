package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/internal/invites/metrics"
	"github.com/magicontap/tapdash/internal/invites/service"
	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/magicontap/tapdash/pkg/httpx"
	"github.com/magicontap/tapdash/pkg/jwtx"
	"github.com/magicontap/tapdash/pkg/slogx"

	_ "github.com/magicontap/tapdash/api/invites" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// corsHeaders are what the dashboard's supabase-js client sends along.
var corsHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	metrics      *metrics.Metrics

	Issuer *service.Issuer

	// Keys is the JWKS cache behind the verifier, nil when only the shared
	// secret is used. SharedSecret tells readiness a secret is configured.
	Keys         *jwtx.KeySet
	SharedSecret bool

	AllowedOrigins []string
	IssueLimit     httpx.RateLimitConfig
	ReadLimit      httpx.RateLimitConfig
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      m,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerInvitations()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Magic On Tap Invitation Service API
//	@version		0.1.0
//	@description	Staff facing API of the Magic On Tap dashboard for inviting people by email.
//	@description
//	@description				Callers authenticate with their Supabase access token. Only admin and superadmin
//	@description				users (app_metadata.role) may use the invitation endpoints.
//
//	@contact.name				Magic On Tap
//	@contact.url				https://tap-magic-dashboard.lovable.app
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Supabase access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// staff is the chain in front of every invitation endpoint.
func (r *Router) staff(route string, h http.Handler, limit httpx.RateLimitConfig, extra ...httpx.Middleware) http.Handler {
	mws := []httpx.Middleware{r.metrics.Instrument(route)}
	mws = append(mws, extra...)
	mws = append(mws,
		httpx.Authn(r.verifier),
		httpx.RequireRole(domain.StaffRoles()...),
		httpx.RateLimit(limit, httpx.PrincipalOrIP),
	)
	return httpx.Chain(h, mws...)
}

func (r *Router) registerInvitations() {
	// The dashboard calls issue straight from the browser, so those two
	// paths answer CORS. Everything else is same-origin or server side.
	cors := httpx.CORS(httpx.CORSConfig{
		AllowedOrigins: r.AllowedOrigins,
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: corsHeaders,
		MaxAge:         600,
	})
	preflight := httpx.Chain(http.HandlerFunc(noContent), cors)

	issue := &IssueHandler{Issuer: r.Issuer}
	legacy := &IssueHandler{Issuer: r.Issuer, Legacy: true}

	r.Mux.Handle("POST /v1/invitations", r.staff("issue", issue, r.IssueLimit, cors))
	r.Mux.Handle("OPTIONS /v1/invitations", preflight)

	// Where the Supabase edge function used to live, both spellings of it.
	for _, path := range []string{"/functions/v1/send-invitation", "/functions/v1/sent-invitation"} {
		r.Mux.Handle("POST "+path, r.staff("issue_legacy", legacy, r.IssueLimit, cors))
		r.Mux.Handle("OPTIONS "+path, preflight)
	}

	lists := &ListHandler{Issuer: r.Issuer}
	r.Mux.Handle("GET /v1/invitations", r.staff("list", lists, r.ReadLimit))

	get := &GetHandler{Issuer: r.Issuer}
	r.Mux.Handle("GET /v1/invitations/{id}", r.staff("get", get, r.ReadLimit))

	resend := &ResendHandler{Issuer: r.Issuer}
	r.Mux.Handle("POST /v1/invitations/{id}/resend", r.staff("resend", resend, r.IssueLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Keys, r.SharedSecret))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}

// noContent ends a preflight the CORS middleware didn't answer (no
// Access-Control-Request-Method, or an origin off the list).
func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
