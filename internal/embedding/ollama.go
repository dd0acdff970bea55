package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hyperjump/mentorlink/internal/config"
	"github.com/hyperjump/mentorlink/internal/vector"
	"github.com/hyperjump/mentorlink/pkg/utils"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaEmbedder calls the Ollama /api/embed endpoint with a per-attempt timeout,
// bounded retries and a simple circuit breaker. Results are L2-normalized and cached.
type OllamaEmbedder struct {
	api    *api.Client
	client *http.Client
	cfg    config.EmbeddingConfig
	cache  *EmbeddingCache
	logger *zap.Logger

	// circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32
}

// Option configures an OllamaEmbedder.
type Option func(*OllamaEmbedder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *OllamaEmbedder) { e.logger = utils.OrNop(l) }
}

// NewOllamaEmbedder creates an embedder for cfg. A nil httpClient gets a client
// whose timeout matches cfg.Timeout.
func NewOllamaEmbedder(cfg config.EmbeddingConfig, httpClient *http.Client, opts ...Option) (*OllamaEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.CircuitFailureThreshold <= 0 {
		cfg.CircuitFailureThreshold = 5
	}
	e := &OllamaEmbedder{
		api:    api.NewClient(u, httpClient),
		client: httpClient,
		cfg:    cfg,
		cache:  NewEmbeddingCache(cfg.CacheSize),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Embed returns the normalized embedding for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if v, ok := e.cache.Get(text); ok {
		return v, nil
	}
	out, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, out[0])
	return out[0], nil
}

// EmbedBatch embeds texts in one request, skipping texts already cached.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, ErrEmptyText
		}
		if v, ok := e.cache.Get(t); ok {
			result[i] = v
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return result, nil
	}
	out, err := e.embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, idx := range missingIdx {
		result[idx] = out[j]
		e.cache.Set(missing[j], out[j])
	}
	return result, nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if atomic.LoadInt32(&e.closed) == 1 {
		return nil, fmt.Errorf("embedder closed")
	}
	if e.isCircuitOpen() {
		return nil, ErrCircuitOpen
	}

	var input any = inputs
	if len(inputs) == 1 {
		input = inputs[0]
	}

	var lastErr error
	for attempt := 0; attempt <= e.cfg.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, e.cfg.Backoff*time.Duration(attempt)); err != nil {
				lastErr = err
				break
			}
		}
		ctxReq, cancel := context.WithTimeout(ctx, e.requestTimeout())
		start := time.Now()
		resp, err := e.api.Embed(ctxReq, &api.EmbedRequest{Model: e.cfg.Model, Input: input})
		cancel()
		if err == nil {
			vectors, verr := e.validate(resp, len(inputs))
			if verr != nil {
				// a malformed response will not improve on retry
				e.recordFailure()
				return nil, verr
			}
			atomic.StoreInt32(&e.failures, 0)
			e.logger.Debug("embedding generated",
				zap.Int("inputs", len(inputs)),
				zap.Int("attempt", attempt+1),
				zap.Duration("latency", time.Since(start)))
			return vectors, nil
		}
		lastErr = err
		e.logger.Debug("embedding attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	e.recordFailure()
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", e.cfg.Retries+1, lastErr)
}

func (e *OllamaEmbedder) validate(resp *api.EmbedResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", got, want)
	}
	for i, v := range resp.Embeddings {
		if e.cfg.Dimensions > 0 && len(v) != e.cfg.Dimensions {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(v), e.cfg.Dimensions)
		}
		vector.Normalize(v)
	}
	return resp.Embeddings, nil
}

func (e *OllamaEmbedder) requestTimeout() time.Duration {
	if e.cfg.Timeout > 0 {
		return e.cfg.Timeout
	}
	return 5 * time.Second
}

func (e *OllamaEmbedder) isCircuitOpen() bool {
	if atomic.LoadInt32(&e.failures) < int32(e.cfg.CircuitFailureThreshold) {
		return false
	}
	if time.Now().UnixNano() < atomic.LoadInt64(&e.openUntil) {
		return true
	}
	// half-open: allow one request through
	atomic.StoreInt32(&e.failures, 0)
	return false
}

func (e *OllamaEmbedder) recordFailure() {
	v := atomic.AddInt32(&e.failures, 1)
	if v >= int32(e.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&e.openUntil, time.Now().Add(e.cfg.CircuitReset).UnixNano())
		e.logger.Warn("embedding circuit opened",
			zap.Int32("failures", v),
			zap.Duration("reset", e.cfg.CircuitReset))
	}
}

// Dimensions returns the configured embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.cfg.Dimensions
}

// Close releases idle connections. It is idempotent.
func (e *OllamaEmbedder) Close() error {
	if !atomic.CompareAndSwapInt32(&e.closed, 0, 1) {
		return nil
	}
	e.client.CloseIdleConnections()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
