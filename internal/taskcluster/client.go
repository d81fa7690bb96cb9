// Package taskcluster retrieves the artifacts published by the patch classification task.
package taskcluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"golang.org/x/time/rate"
)

// CacheVersion is bumped whenever the cached payload layout changes.
const CacheVersion = 1

// maxArtifactBytes bounds a single artifact download.
const maxArtifactBytes = 32 << 20

// Client fetches classification artifacts over HTTP.
type Client struct {
	httpClient  *http.Client
	urlTemplate string
	limiter     *rate.Limiter
	cache       contract.CacheStore
	cacheTTL    time.Duration
	now         func() time.Time
}

var _ contract.RiskSource = &Client{} // Compile-time check

// NewClient creates a client from the validated config.
// The cache store is optional. Pass nil to always download.
func NewClient(cfg *contract.Config, cache contract.CacheStore) *Client {
	burst := max(int(cfg.RateLimit), 1)
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		urlTemplate: cfg.ArtifactURL,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		cache:       cache,
		cacheTTL:    cfg.CacheTTL,
		now:         time.Now,
	}
}

// FetchResult implements the RiskSource interface.
func (c *Client) FetchResult(ctx context.Context, diffID string) (schema.ClassificationResult, error) {
	var result schema.ClassificationResult
	err := c.fetch(ctx, diffID, schema.ResultArtifact, func(data []byte) error {
		var err error
		result, err = DecodeResult(data)
		return err
	})
	return result, err
}

// FetchFeatures implements the RiskSource interface.
func (c *Client) FetchFeatures(ctx context.Context, diffID string) ([]schema.FeatureRecord, error) {
	var features []schema.FeatureRecord
	err := c.fetch(ctx, diffID, schema.FeatureArtifact, func(data []byte) error {
		var err error
		features, err = DecodeFeatures(data)
		return err
	})
	return features, err
}

// FetchMethods implements the RiskSource interface.
func (c *Client) FetchMethods(ctx context.Context, diffID string) ([]schema.MethodRiskRecord, error) {
	var methods []schema.MethodRiskRecord
	err := c.fetch(ctx, diffID, schema.MethodArtifact, func(data []byte) error {
		var err error
		methods, err = DecodeMethods(data)
		return err
	})
	return methods, err
}

// fetch loads an artifact from the cache or the network and decodes it.
// Only payloads that decode are written to the cache.
func (c *Client) fetch(ctx context.Context, diffID string, artifact schema.Artifact, decode func([]byte) error) error {
	if diffID == "" {
		return &contract.PreconditionError{What: contract.MissingDiffID}
	}

	key := CacheKey(diffID, artifact)
	if data, ok := c.lookup(key); ok {
		if err := decode(data); err == nil {
			return nil
		}
	}

	data, status, err := c.download(ctx, contract.ExpandArtifactURL(c.urlTemplate, diffID, artifact))
	if err != nil {
		return &contract.RetrievalError{Artifact: artifact, DiffID: diffID, StatusCode: status, Err: err}
	}
	if err := decode(data); err != nil {
		return &contract.RetrievalError{Artifact: artifact, DiffID: diffID, StatusCode: status, Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Set(key, data, CacheVersion, c.now().Unix()); err != nil {
			contract.LogWarn("Failed to cache artifact "+key, err)
		}
	}
	return nil
}

// lookup returns a fresh cached payload.
func (c *Client) lookup(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, version, ts, err := c.cache.Get(key)
	if err != nil || version != CacheVersion {
		return nil, false
	}
	if c.now().Sub(time.Unix(ts, 0)) > c.cacheTTL {
		return nil, false
	}
	return data, true
}

// download performs a rate-limited GET and returns the body of a 200 response.
func (c *Client) download(ctx context.Context, url string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if len(data) > maxArtifactBytes {
		return nil, resp.StatusCode, errors.New("artifact too large")
	}
	return data, resp.StatusCode, nil
}

// CacheKey is the artifact cache key for a diff and artifact.
func CacheKey(diffID string, artifact schema.Artifact) string {
	return diffID + "/" + string(artifact)
}
