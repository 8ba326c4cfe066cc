package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPSettler posts signed results to the API settle endpoint.
type HTTPSettler struct {
	url    string
	client *http.Client
}

func NewHTTPSettler(url string) *HTTPSettler {
	return &HTTPSettler{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSettler) SubmitResult(ctx context.Context, request, token string) error {
	body, err := json.Marshal(SettleCallback{Request: request, Response: token})
	if err != nil {
		return errors.Wrap(err, "encode settle callback")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build settle callback")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post settle callback")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("settle callback returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
