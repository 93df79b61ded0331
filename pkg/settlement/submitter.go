package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Submitter delivers packaged trades to the settlement venue over HTTP.
// The venue owns transaction construction and on-chain submission; this
// side only posts the payloads and checks for acceptance.
type Submitter struct {
	url string
	hc  *http.Client
	log *zap.SugaredLogger
}

func NewSubmitter(url string, log *zap.SugaredLogger) *Submitter {
	return &Submitter{
		url: url,
		hc:  &http.Client{Timeout: 30 * time.Second},
		log: log,
	}
}

// Submit posts one batch of packaged trades as a JSON array. A non-2xx
// response is an error; retry policy belongs to the caller.
func (s *Submitter) Submit(ctx context.Context, trades []ReadyTrade) error {
	if len(trades) == 0 {
		return nil
	}

	body, err := json.Marshal(trades)
	if err != nil {
		return fmt.Errorf("encode trades: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("submit trades: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("settlement venue rejected batch: %s", resp.Status)
	}

	if s.log != nil {
		s.log.Infow("trades_submitted", "count", len(trades), "venue", s.url)
	}
	return nil
}
