package clients

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	VALKEY_CLASSIFY_PREFIX = "sentiscope:classify:"
	VALKEY_CLASSIFY_TTL    = 86400
)

type ValkeyOptions struct {
	Address  string
	Password string
	TLS      bool
}

// ValkeyClient caches classifications keyed by a hash of the input text.
type ValkeyClient struct {
	Client valkey.Client
}

type cachedClassification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func NewValkeyClient(ctx context.Context, opts ValkeyOptions) (*ValkeyClient, error) {
	clientOpts := valkey.ClientOption{
		InitAddress:      []string{opts.Address},
		Password:         opts.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if opts.TLS {
		clientOpts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey")
	return &ValkeyClient{Client: client}, nil
}

func (vc *ValkeyClient) Close() {
	vc.Client.Close()
}

func (vc *ValkeyClient) Ping(ctx context.Context) error {
	return vc.Client.Do(ctx, vc.Client.B().Ping().Build()).Error()
}

// GetClassification returns a cached result for text. Misses and cache
// errors both report ok=false; the cache is never authoritative.
func (vc *ValkeyClient) GetClassification(ctx context.Context, text string) (models.Label, float64, bool) {
	key := classifyKey(text)
	res := vc.DoWithRetry(ctx, func() valkey.Completed {
		return vc.Client.B().Get().Key(key).Build()
	}, 2)
	raw, err := res.ToString()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[ValkeyClient] Cache lookup failed", slog.String("error", err.Error()))
		}
		return "", 0, false
	}

	var cached cachedClassification
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return "", 0, false
	}
	return models.Label(cached.Label), cached.Score, true
}

func (vc *ValkeyClient) SetClassification(ctx context.Context, text string, label models.Label, score float64) error {
	value, err := json.Marshal(cachedClassification{Label: label.String(), Score: score})
	if err != nil {
		return err
	}

	key := classifyKey(text)
	build := func() []valkey.Completed {
		return []valkey.Completed{
			vc.Client.B().Set().Key(key).Value(string(value)).Build(),
			vc.Client.B().Expire().Key(key).Seconds(VALKEY_CLASSIFY_TTL).Build(),
		}
	}
	for _, res := range vc.DoMultiWithRetry(ctx, build, 3) {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}

// DoMultiWithRetry rebuilds the commands on every attempt; valkey recycles
// a command once it has been sent.
func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, build func() []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.Client.DoMulti(ctx, build()...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] Do Multi failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				break
			}
		}
		if !hasErr || !isConnectionError(results) {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}

	return results
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func() valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, build())
		if result.Error() == nil || valkey.IsValkeyNil(result.Error()) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func classifyKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return VALKEY_CLASSIFY_PREFIX + hex.EncodeToString(sum[:])
}

func isConnectionError(results []valkey.ValkeyResult) bool {
	for _, r := range results {
		err := r.Error()
		if err == nil {
			continue
		}
		msg := err.Error()
		if strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "EOF") ||
			strings.Contains(msg, "i/o timeout") {
			return true
		}
	}
	return false
}
