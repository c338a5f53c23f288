// Package httpapi is the HTTP surface: routing, middleware, authn/authz
// enforcement and JSON encoding for the auth service.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"vernis.app/internal/auth"
	"vernis.app/internal/obs"
)

// ReadyProbe checks downstream readiness (DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	gate       *auth.Gate
	readyProbe ReadyProbe
	version    string

	rateBurst  int
	ratePerSec int
	maxBody    int64
}

// Option configures the API.
type Option func(*API)

// WithRateLimit overrides the per-IP token bucket parameters.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst = burst
			a.ratePerSec = perSecond
		}
	}
}

// WithMaxBodyBytes overrides the request body size cap.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBody = n
		}
	}
}

func New(svc *auth.Service, gate *auth.Gate, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		gate:       gate,
		readyProbe: rp,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
		maxBody:    1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// credential and token lifecycle
	a.mux.HandleFunc("/v1/auth/register", a.Register)
	a.mux.HandleFunc("/v1/auth/confirm", a.ConfirmEmail)
	a.mux.HandleFunc("/v1/auth/resend-confirmation", a.ResendConfirmation)
	a.mux.HandleFunc("/v1/auth/login", a.Login)
	a.mux.HandleFunc("/v1/auth/password-reset", a.RequestPasswordReset)
	a.mux.HandleFunc("/v1/auth/password-reset/confirm", a.ResetPassword)

	// authenticated surface
	a.mux.HandleFunc("/v1/me", a.Me)
	a.mux.HandleFunc("/v1/clients", a.CreateClient)
	a.mux.HandleFunc("/v1/clients/", a.ClientByID)
	a.mux.HandleFunc("/v1/users/", a.UserRoutes)
	a.mux.HandleFunc("/v1/groups", a.CreateGroup)
	a.mux.HandleFunc("/v1/groups/", a.GroupRoutes)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBody)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "vernis-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "vernis-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
