package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/sentiscope/internal/models"
)

type SentimentAPIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	Backoff      time.Duration
	HistoryLimit int
}

// SentimentAPIClient talks to the classification and history service.
// Reads are retried on transport errors and 5xx; classify and delete are
// sent exactly once.
type SentimentAPIClient struct {
	Client       *http.Client
	baseURL      string
	maxRetries   int
	backoff      time.Duration
	historyLimit int
}

func NewSentimentAPIClient(cfg SentimentAPIConfig) *SentimentAPIClient {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = MAX_RETRIES
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = INITIAL_BACKOFF
	}

	slog.Debug("[SentimentAPIClient] Initializing Client",
		slog.String("base_url", cfg.BaseURL),
		slog.Duration("timeout", cfg.Timeout))

	return &SentimentAPIClient{
		Client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:   cfg.MaxRetries,
		backoff:      cfg.Backoff,
		historyLimit: cfg.HistoryLimit,
	}
}

func (c *SentimentAPIClient) Classify(ctx context.Context, text string) (models.RawClassification, error) {
	var result models.RawClassification
	slog.Info("[SentimentAPIClient] Requesting classification",
		slog.Int("text_length", len(text)))
	start := time.Now()

	body, err := json.Marshal(models.ClassifyRequest{Text: text})
	if err != nil {
		return result, fmt.Errorf("failed to marshal input: %w", err)
	}

	err = c.doJSON(ctx, http.MethodPost, CLASSIFY_PATH, body, false, &result)
	if err != nil {
		slog.Error("[SentimentAPIClient] Classification request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return result, err
	}

	slog.Info("[SentimentAPIClient] Classification request successful",
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// ListHistory fetches the stored analyses, newest first. The service
// answers an empty history with 404, which is reported as an empty list.
func (c *SentimentAPIClient) ListHistory(ctx context.Context) (models.RawHistoryList, error) {
	var result models.RawHistoryList
	path := HISTORY_PATH
	if c.historyLimit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(c.historyLimit)}}.Encode()
	}

	err := c.doJSON(ctx, http.MethodGet, path, nil, true, &result)
	var remote *models.RemoteError
	if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
		slog.Debug("[SentimentAPIClient] History is empty")
		return models.RawHistoryList{Analyses: []models.RawHistoryEntry{}}, nil
	}
	if err != nil {
		return result, err
	}
	if result.Analyses == nil {
		result.Analyses = []models.RawHistoryEntry{}
	}
	return result, nil
}

func (c *SentimentAPIClient) SearchHistory(ctx context.Context, query string) (models.RawHistoryList, error) {
	var result models.RawHistoryList
	params := url.Values{"search_query": {query}}
	if c.historyLimit > 0 {
		params.Set("limit", strconv.Itoa(c.historyLimit))
	}

	err := c.doJSON(ctx, http.MethodGet, HISTORY_SEARCH_PATH+"?"+params.Encode(), nil, true, &result)
	var remote *models.RemoteError
	if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
		return models.RawHistoryList{Analyses: []models.RawHistoryEntry{}}, nil
	}
	return result, err
}

func (c *SentimentAPIClient) GetHistoryEntry(ctx context.Context, id models.AnalysisID) (models.RawHistoryEntry, error) {
	var result models.RawHistoryEntry
	err := c.doJSON(ctx, http.MethodGet, HISTORY_PATH+url.PathEscape(id.String()), nil, true, &result)
	var remote *models.RemoteError
	if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
		return result, fmt.Errorf("analysis %s: %w", id, models.ErrNotFound)
	}
	return result, err
}

// DeleteHistoryEntry reports the service's boolean verdict. A false verdict
// is not an error at this layer.
func (c *SentimentAPIClient) DeleteHistoryEntry(ctx context.Context, id models.AnalysisID) (bool, error) {
	var deleted bool
	if err := c.doJSON(ctx, http.MethodDelete, HISTORY_PATH+url.PathEscape(id.String()), nil, false, &deleted); err != nil {
		slog.Warn("[SentimentAPIClient] Delete request failed",
			slog.String("id", id.String()),
			slog.String("error", err.Error()))
		return false, err
	}
	return deleted, nil
}

func (c *SentimentAPIClient) Health(ctx context.Context) (models.HealthResponse, error) {
	var result models.HealthResponse
	err := c.doJSON(ctx, http.MethodGet, HEALTH_PATH, nil, true, &result)
	return result, err
}

func (c *SentimentAPIClient) doJSON(ctx context.Context, method, path string, body []byte, retry bool, output any) error {
	endpoint := c.baseURL + path

	attempts := 1
	if retry {
		attempts = c.maxRetries
	}

	resp, err := c.doWithRetry(ctx, attempts, func() (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", models.ErrTransportFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote := &models.RemoteError{StatusCode: resp.StatusCode, Status: resp.Status}
		var detail models.ErrorResponse
		if json.Unmarshal(respBody, &detail) == nil {
			remote.Detail = detail.Detail
		}
		return remote
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[SentimentAPIClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("%w: %w", models.ErrMalformedResponse, err)
	}
	return nil
}

func (c *SentimentAPIClient) doWithRetry(ctx context.Context, attempts int, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := c.backoff

	for attempt := 0; attempt < attempts; attempt++ {
		req, buildErr := build()
		if buildErr != nil {
			return nil, fmt.Errorf("failed to build request: %w", buildErr)
		}

		resp, err = c.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt == attempts-1 {
			break
		}

		if resp != nil {
			resp.Body.Close()
		}

		slog.Warn("[SentimentAPIClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", models.ErrTransportFailure, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransportFailure, err)
	}
	return resp, nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
