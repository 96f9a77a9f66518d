package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"streampay/internal/api"
	"streampay/internal/config"
	"streampay/internal/ledger"
	"streampay/internal/logging"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	streams *api.StreamService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		streams: d.Streams(),
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/streams", authMiddleware(token, srv.handleStreams))
	mux.HandleFunc("/api/streams/next-id", authMiddleware(token, srv.handleNextID))
	mux.HandleFunc("/api/streams/", authMiddleware(token, srv.handleStream))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr reports the bound listen address, useful when the bind port is 0.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Environment:  status.Environment,
		LedgerDBPath: status.LedgerDBPath,
		LockFilePath: status.LockFilePath,
		NextStreamID: status.NextStreamID,
		Ledger:       api.LedgerStats{Counts: status.Stats},
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleStreams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		activeOnly := queryFlag(r, "active")
		streams, err := s.streams.List(r.Context(), activeOnly)
		if err != nil {
			s.writeLedgerError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.StreamListResponse{Streams: streams})
	case http.MethodPost:
		var req api.CreateStreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		view, err := s.streams.Create(r.Context(), req)
		if err != nil {
			s.writeLedgerError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.StreamResponse{Stream: *view})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleNextID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	next, err := s.streams.NextID(r.Context())
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"nextStreamId": next})
}

// handleStream routes /api/streams/{id}, /api/streams/{id}/close, and
// /api/streams/{id}/transfers.
func (s *apiServer) handleStream(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/streams/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid stream id")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view, err := s.streams.Describe(r.Context(), id)
		if err != nil {
			s.writeLedgerError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.StreamResponse{Stream: *view})
	case "close":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req api.CloseStreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		settlement, err := s.streams.Close(r.Context(), id, req)
		if err != nil {
			s.writeLedgerError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, settlement)
	case "transfers":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		transfers, err := s.streams.Transfers(r.Context(), id)
		if err != nil {
			s.writeLedgerError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.TransferListResponse{Transfers: transfers})
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func queryFlag(r *http.Request, name string) bool {
	value := r.URL.Query().Get(name)
	return value == "1" || strings.EqualFold(value, "true")
}

// writeLedgerError maps ledger error kinds onto HTTP status codes so clients
// can distinguish bad requests from lost races without parsing messages.
func (s *apiServer) writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch ledger.Kind(err) {
	case ledger.KindInvalidInput:
		status = http.StatusBadRequest
	case ledger.KindNotFound:
		status = http.StatusNotFound
	case ledger.KindUnauthorized:
		status = http.StatusForbidden
	case ledger.KindAlreadyClosed:
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  ledger.Kind(err),
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
