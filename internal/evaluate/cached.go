package evaluate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ppiankov/ideascore/internal/cache"
)

// CachedOracle serves repeated requests from a response cache.
// Only successful responses are stored.
type CachedOracle struct {
	next   Oracle
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedOracle wraps next with c. A zero ttl uses the cache's default.
func NewCachedOracle(next Oracle, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedOracle{next: next, cache: c, ttl: ttl, logger: logger}
}

func (o *CachedOracle) Name() string { return o.next.Name() }

func (o *CachedOracle) Score(ctx context.Context, req Request) (*Response, error) {
	key := cache.ResponseKey(o.next.Name(), req.Fingerprint())

	if data, ok := o.cache.Get(key); ok {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			o.logger.Debug("oracle cache hit", "idea", req.IdeaID, "oracle", o.next.Name())
			return &resp, nil
		}
		_ = o.cache.Delete(key)
	}

	resp, err := o.next.Score(ctx, req)
	if err != nil || resp == nil {
		return resp, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := o.cache.Set(key, data, o.ttl); err != nil {
			o.logger.Warn("failed to cache oracle response", "error", err)
		}
	}
	return resp, nil
}
