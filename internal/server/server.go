// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonerrors "medical-reminders/internal/common/errors"
	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/jobs/reminders"
)

// TokenVerifier checks a bearer token. A nil error means the caller is
// authenticated.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) error
}

// ReminderRunner triggers one reminder batch.
type ReminderRunner interface {
	Run(ctx context.Context) (reminders.Result, error)
}

// ReadyChecker reports whether a backing dependency is reachable.
type ReadyChecker func(ctx context.Context) error

// Server exposes the manual trigger plus health and metrics endpoints.
type Server struct {
	verifier TokenVerifier
	runner   ReminderRunner
	ready    []ReadyChecker
	logger   logger.Logger
}

func New(verifier TokenVerifier, runner ReminderRunner, ready []ReadyChecker, log logger.Logger) *Server {
	return &Server{verifier: verifier, runner: runner, ready: ready, logger: log}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/reminders/run", s.handleRunReminders)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	for _, check := range s.ready {
		if err := check(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleRunReminders is the manual trigger. Authentication is checked before
// any work happens: an unauthenticated call has zero side effects.
func (s *Server) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "internal", "method not allowed")
		return
	}

	token := bearerToken(r)
	if err := s.verifier.VerifyToken(r.Context(), token); err != nil {
		if commonerrors.CodeOf(err) == commonerrors.ErrCodeUnauthenticated {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "Must be authenticated to trigger reminders")
			return
		}
		s.logger.WithError(err).Error("Token verification failed", nil)
		writeError(w, http.StatusInternalServerError, "internal", "Failed to send reminders")
		return
	}

	result, err := s.runner.Run(r.Context())
	if err != nil {
		// Detail stays in the logs; the caller gets a generic message.
		s.logger.WithError(err).Error("Manual reminder run failed", map[string]interface{}{
			"run_id": result.RunID,
		})
		writeError(w, http.StatusInternalServerError, "internal", "Failed to send reminders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Sent %d reminders", result.Sent),
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}
