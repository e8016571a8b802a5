// Command authcored runs an HTTP façade over the authcore service.
//
// Configuration comes from the environment. With no AUTHCORE_REDIS_ADDR set
// the daemon starts an embedded miniredis, which is convenient for local
// experiments but persists nothing.
//
// Endpoints:
//
//	POST /register                  JSON {"username","email","password","full_name"}
//	POST /login                     JSON {"username","password"}, returns a session token
//	POST /password-reset            JSON {"email"}, always answers 202
//	POST /password-reset/confirm    JSON {"token","new_password"}
//	GET  /me                        requires Authorization: Bearer <token>
//	GET  /audit[?username=NAME]     recent audit events, newest first
//	GET  /metrics                   Prometheus text exposition
//
// Run:
//
//	AUTHCORE_SESSION_SECRET=$(openssl rand -hex 16) go run ./cmd/authcored
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	authcore "github.com/arcvale/authcore"
	"github.com/arcvale/authcore/metrics/export/prometheus"
)

type envConfig struct {
	ListenAddr    string        `env:"AUTHCORE_LISTEN_ADDR" envDefault:":8080"`
	RedisAddr     string        `env:"AUTHCORE_REDIS_ADDR"`
	RedisPassword string        `env:"AUTHCORE_REDIS_PASSWORD"`
	KeyPrefix     string        `env:"AUTHCORE_KEY_PREFIX" envDefault:"authcore"`
	SessionSecret string        `env:"AUTHCORE_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"AUTHCORE_SESSION_TTL" envDefault:"1h"`
	ResetTokenTTL time.Duration `env:"AUTHCORE_RESET_TOKEN_TTL" envDefault:"30m"`
	MaxAttempts   int           `env:"AUTHCORE_LOCKOUT_MAX_ATTEMPTS" envDefault:"5"`
	LockDuration  time.Duration `env:"AUTHCORE_LOCKOUT_DURATION" envDefault:"15m"`
}

func main() {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		log.Fatal("parse env: ", err)
	}
	if ec.SessionSecret == "" {
		log.Fatal("AUTHCORE_SESSION_SECRET is required")
	}

	// ---------- infrastructure ----------
	var (
		client  redis.UniversalClient
		cleanup func()
	)
	if ec.RedisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatal("start miniredis: ", err)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		log.Printf("using embedded miniredis at %s (no persistence)", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{ec.RedisAddr},
			Password: ec.RedisPassword,
		})
		cleanup = func() { _ = client.Close() }
		log.Printf("using redis at %s", ec.RedisAddr)
	}
	defer cleanup()

	// ---------- build service ----------
	cfg := authcore.DefaultConfig()
	cfg.Store.KeyPrefix = ec.KeyPrefix
	cfg.Session.Secret = []byte(ec.SessionSecret)
	cfg.Session.TTL = ec.SessionTTL
	cfg.Reset.TokenTTL = ec.ResetTokenTTL
	cfg.Lockout.MaxAttempts = ec.MaxAttempts
	cfg.Lockout.LockDuration = ec.LockDuration
	cfg.Metrics.EnableLatencyHistograms = true

	svc, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		Build()
	if err != nil {
		log.Fatal("service build: ", err)
	}
	defer svc.Close()

	// ---------- routes ----------
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", registerHandler(svc))
	mux.HandleFunc("POST /login", loginHandler(svc))
	mux.HandleFunc("POST /password-reset", resetRequestHandler(svc))
	mux.HandleFunc("POST /password-reset/confirm", resetConfirmHandler(svc))
	mux.HandleFunc("GET /me", meHandler(svc))
	mux.HandleFunc("GET /audit", auditHandler(svc))
	mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(svc).Handler())

	server := &http.Server{
		Addr:              ec.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", ec.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func registerHandler(svc *authcore.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
			FullName string `json:"full_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		acct, err := svc.Register(withRequestContext(r), authcore.RegisterRequest{
			Username: body.Username,
			Email:    body.Email,
			Password: body.Password,
			FullName: body.FullName,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, acct)
	}
}

func loginHandler(svc *authcore.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		session, err := svc.Login(withRequestContext(r), body.Username, body.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":      session.Token,
			"expires_at": session.ExpiresAt,
			"account":    session.Account,
		})
	}
}

func resetRequestHandler(svc *authcore.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		// The token goes to a mail pipeline in a real deployment. Logging it
		// here keeps the demo self-contained without leaking it to the caller.
		token, err := svc.RequestPasswordReset(withRequestContext(r), body.Email)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if token != "" {
			log.Printf("password reset token for %s: %s", body.Email, token)
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func resetConfirmHandler(svc *authcore.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if err := svc.ConfirmPasswordReset(withRequestContext(r), body.Token, body.NewPassword); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler(svc *authcore.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := svc.ParseSession(token)
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}

		acct, err := svc.GetAccount(withRequestContext(r), claims.UID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func auditHandler(svc *authcore.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := withRequestContext(r)

		var (
			events []authcore.AuditEvent
			err    error
		)
		if username := r.URL.Query().Get("username"); username != "" {
			events, err = svc.AuditLogFor(ctx, username, 0)
		} else {
			events, err = svc.AuditLog(ctx, 0)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func withRequestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return authcore.WithClientIP(r.Context(), host)
}

func bearerToken(h string) string {
	const pfx = "Bearer "
	if len(h) >= len(pfx) && h[:len(pfx)] == pfx {
		return h[len(pfx):]
	}
	return ""
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authcore.ErrAccountLocked):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, authcore.ErrInvalidCredentials),
		errors.Is(err, authcore.ErrAccountInactive),
		errors.Is(err, authcore.ErrSessionInvalid):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, authcore.ErrUsernameTaken),
		errors.Is(err, authcore.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, authcore.ErrRegistrationInvalid),
		errors.Is(err, authcore.ErrPasswordPolicy),
		errors.Is(err, authcore.ErrRoleInvalid),
		errors.Is(err, authcore.ErrResetTokenInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, authcore.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
