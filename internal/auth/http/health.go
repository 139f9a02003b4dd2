package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/internal/auth/store"
	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/httpx"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

func healthOf(startTime time.Time, version string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  statusOK,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
	}
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthOf(startTime, version))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and the status of the database and the configured key material
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	settings *service.Settings,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthOf(startTime, version)
		resp.Checks = &authsdk.HealthChecks{Database: statusOK, Keys: statusOK}

		if err := st.Ping(r.Context()); err != nil {
			resp.Checks.Database = "error: " + err.Error()
			resp.Status = statusDegraded
		}

		// Without material every token request would answer bad_config
		if !settings.Ready() {
			resp.Checks.Keys = "error: no key material for " + settings.Algorithm
			resp.Status = statusDegraded
		}

		code := http.StatusOK
		if resp.Status != statusOK {
			code = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, resp)
	}
}
