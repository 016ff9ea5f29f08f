package ingest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/httputil"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

// HTTPSource retrieves a per-basin monthly CSV from an HTTPS mirror.
// Used for the ERA5 soil moisture and IMERG rainfall feeds.
type HTTPSource struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPSource(name, url string) *HTTPSource {
	return &HTTPSource{
		name:   name,
		url:    url,
		client: httputil.NewClient(),
	}
}

func (h *HTTPSource) Name() string { return h.name }

func (h *HTTPSource) Endpoint() string { return h.url }

func (h *HTTPSource) Fetch() ([]models.SourceSample, []byte, *FetchResult, error) {
	var body []byte
	var status int

	operation := func() error {
		resp, err := h.client.Get(h.url)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", h.name, err))
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", h.name, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", h.name, resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, nil, &FetchResult{HTTPStatus: status}, err
	}

	result := &FetchResult{HTTPStatus: status, ResponseSize: len(body)}

	samples, stats, err := ParseSourceCSV(bytes.NewReader(body), h.name)
	if err != nil {
		return nil, body, result, fmt.Errorf("parse %s csv: %w", h.name, err)
	}
	result.RecordCount = stats.Parsed
	result.ParseErrors = stats.TotalRejected()
	result.Rejected = stats.Rejected
	if result.ParseErrors > 0 {
		result.ParseError = fmt.Sprintf("%d rows rejected", result.ParseErrors)
	}
	return samples, body, result, nil
}
