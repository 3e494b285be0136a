package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/magicontap/tapdash/pkg/httpx"
	"github.com/magicontap/tapdash/pkg/invitesdk"
	"github.com/magicontap/tapdash/pkg/jwtx"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	invitesdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, invitesdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe returning the status of the database, the token verifier and the invite outbox.
//	@Description	Dead outbox rows are reported but don't make the service unready.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	invitesdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	invitesdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
	sharedSecret bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &invitesdk.HealthChecks{
			Database: "ok",
			Verifier: "ok",
			Outbox:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Either the JWKS has been fetched at least once or a shared secret
		// can verify HS256 tokens.
		if !sharedSecret && (keys == nil || !keys.IsReady()) {
			checks.Verifier = "error: no keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		sum, err := st.Dispatches().Summary(r.Context())
		switch {
		case err != nil:
			checks.Outbox = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		case sum.Dead > 0:
			checks.Outbox = fmt.Sprintf("warning: %d dead", sum.Dead)
		}
		checks.OutboxPending = sum.Backlog()
		checks.OutboxDead = sum.Dead

		httpx.WriteJSON(w, statusCode, invitesdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
