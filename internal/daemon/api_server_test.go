package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streampay/internal/api"
	"streampay/internal/ledger"
)

type ledgerStub struct {
	streams []*ledger.Stream
}

func (s *ledgerStub) CreateStream(_ context.Context, sender, recipient ledger.Address, flowRate, deposit uint64) (*ledger.Stream, error) {
	if sender == recipient {
		return nil, ledger.ErrInvalidInput
	}
	stream := &ledger.Stream{
		ID:          uint64(len(s.streams)),
		Sender:      sender,
		Recipient:   recipient,
		FlowRate:    flowRate,
		Balance:     deposit,
		LastSettled: s.Now(),
		Active:      true,
	}
	s.streams = append(s.streams, stream)
	return stream, nil
}

func (s *ledgerStub) CloseStream(_ context.Context, id uint64, _ ledger.Address) (*ledger.Settlement, error) {
	if id >= uint64(len(s.streams)) {
		return nil, ledger.ErrNotFound
	}
	if !s.streams[id].Active {
		return nil, ledger.ErrAlreadyClosed
	}
	s.streams[id].Active = false
	return &ledger.Settlement{StreamID: id, ClosedAt: s.Now()}, nil
}

func (s *ledgerStub) GetStream(_ context.Context, id uint64) (*ledger.Stream, error) {
	if id >= uint64(len(s.streams)) {
		return nil, ledger.ErrNotFound
	}
	return s.streams[id], nil
}

func (s *ledgerStub) NextStreamID(context.Context) (uint64, error) {
	return uint64(len(s.streams)), nil
}

func (s *ledgerStub) List(context.Context, bool) ([]*ledger.Stream, error) {
	return s.streams, nil
}

func (s *ledgerStub) Transfers(context.Context, uint64) ([]*ledger.Transfer, error) {
	return nil, nil
}

func (s *ledgerStub) Now() time.Time {
	return time.Unix(1_700_000_000, 0).UTC()
}

func stubServer(stub *ledgerStub) *apiServer {
	return &apiServer{streams: api.NewStreamService(stub)}
}

func TestAPIServerListStreams(t *testing.T) {
	stub := &ledgerStub{}
	srv := stubServer(stub)
	if _, err := stub.CreateStream(context.Background(), "0xaa", "0xbb", 1, 100); err != nil {
		t.Fatalf("seed stream: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/streams", nil)
	w := httptest.NewRecorder()
	srv.handleStreams(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.StreamListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(resp.Streams))
	}
	if resp.Streams[0].Balance != 100 {
		t.Fatalf("unexpected balance: %d", resp.Streams[0].Balance)
	}
}

func TestAPIServerCreateStream(t *testing.T) {
	srv := stubServer(&ledgerStub{})

	body := strings.NewReader(`{"sender":"0xaa","recipient":"0xbb","flowRate":2,"deposit":50}`)
	req := httptest.NewRequest(http.MethodPost, "/api/streams", body)
	w := httptest.NewRecorder()
	srv.handleStreams(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.StreamResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Stream.ID != 0 || resp.Stream.FlowRate != 2 {
		t.Fatalf("unexpected stream: %+v", resp.Stream)
	}
}

func TestAPIServerErrorKinds(t *testing.T) {
	stub := &ledgerStub{}
	srv := stubServer(stub)
	if _, err := stub.CreateStream(context.Background(), "0xaa", "0xbb", 1, 10); err != nil {
		t.Fatalf("seed stream: %v", err)
	}

	cases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantKind   string
	}{
		{"self stream rejected", http.MethodPost, "/api/streams", `{"sender":"0xaa","recipient":"0xaa"}`, http.StatusBadRequest, ledger.KindInvalidInput},
		{"unknown stream", http.MethodGet, "/api/streams/99", "", http.StatusNotFound, ledger.KindNotFound},
		{"close unknown", http.MethodPost, "/api/streams/99/close", `{"caller":"0xaa"}`, http.StatusNotFound, ledger.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			} else {
				req = httptest.NewRequest(tc.method, tc.path, nil)
			}
			w := httptest.NewRecorder()
			if tc.path == "/api/streams" {
				srv.handleStreams(w, req)
			} else {
				srv.handleStream(w, req)
			}

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.wantStatus, w.Body.String())
			}
			var payload map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode error payload: %v", err)
			}
			if payload["kind"] != tc.wantKind {
				t.Fatalf("kind = %q, want %q", payload["kind"], tc.wantKind)
			}
		})
	}
}

func TestAPIServerCloseConflict(t *testing.T) {
	stub := &ledgerStub{}
	srv := stubServer(stub)
	if _, err := stub.CreateStream(context.Background(), "0xaa", "0xbb", 1, 10); err != nil {
		t.Fatalf("seed stream: %v", err)
	}
	if _, err := stub.CloseStream(context.Background(), 0, "0xaa"); err != nil {
		t.Fatalf("first close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/streams/0/close", strings.NewReader(`{"caller":"0xaa"}`))
	w := httptest.NewRecorder()
	srv.handleStream(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 Conflict, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("valid token: expected 204, got %d", w.Code)
	}
}
