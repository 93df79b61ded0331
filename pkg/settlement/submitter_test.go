package settlement

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clobx/matchbook/pkg/engine"
)

func TestSubmitterPostsBatch(t *testing.T) {
	var received []ReadyTrade
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewPackager(testConfig())
	batch := p.Package([]engine.Trade{testTrade(engine.Sell)})

	s := NewSubmitter(srv.URL, nil)
	if err := s.Submit(context.Background(), batch); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(received) != 1 || received[0].Salt != batch[0].Salt {
		t.Errorf("venue received %v, want the packaged batch", received)
	}
}

func TestSubmitterRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewPackager(testConfig())
	batch := p.Package([]engine.Trade{testTrade(engine.Sell)})

	if err := NewSubmitter(srv.URL, nil).Submit(context.Background(), batch); err == nil {
		t.Error("Submit returned nil for a 400 response")
	}
}

func TestSubmitterEmptyBatchIsNoop(t *testing.T) {
	s := NewSubmitter("http://127.0.0.1:1", nil) // unreachable on purpose
	if err := s.Submit(context.Background(), nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}
