package classify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/workflow"
)

const defaultCacheTTL = 24 * time.Hour

// Cache decorates a classifier with a Redis cache over the pure
// content-addressed calls (intent, system, triage). The stateful calls
// pass through untouched. Redis being down never fails a classification;
// the decorator falls back to the wrapped classifier and logs once per
// miss.
type Cache struct {
	next   workflow.Classifier
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps next with a Redis-backed cache.
func NewCache(next workflow.Classifier, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

type cachedIntent struct {
	Intent  domain.Intent `json:"intent"`
	Details string        `json:"details"`
}

func (c *Cache) ClassifyIntent(ctx context.Context, title, description string) (domain.Intent, string, error) {
	key := "classify:intent:" + contentKey(title, description)
	var hit cachedIntent
	if c.lookup(ctx, key, &hit) {
		return hit.Intent, hit.Details, nil
	}
	intent, details, err := c.next.ClassifyIntent(ctx, title, description)
	if err != nil {
		return intent, details, err
	}
	c.store(ctx, key, cachedIntent{Intent: intent, Details: details})
	return intent, details, nil
}

func (c *Cache) ExtractSystem(ctx context.Context, title, description string) (domain.SystemKind, error) {
	key := "classify:system:" + contentKey(title, description)
	var hit domain.SystemKind
	if c.lookup(ctx, key, &hit) {
		return hit, nil
	}
	system, err := c.next.ExtractSystem(ctx, title, description)
	if err != nil {
		return system, err
	}
	c.store(ctx, key, system)
	return system, nil
}

func (c *Cache) AssessPriority(ctx context.Context, t domain.Ticket) (domain.Triage, error) {
	key := "classify:triage:" + contentKey(t.Title, t.Description)
	var hit domain.Triage
	if c.lookup(ctx, key, &hit) {
		return hit, nil
	}
	triage, err := c.next.AssessPriority(ctx, t)
	if err != nil {
		return triage, err
	}
	c.store(ctx, key, triage)
	return triage, nil
}

func (c *Cache) AssessAutomation(ctx context.Context, t domain.Ticket, intent domain.Intent) (domain.Eligibility, error) {
	return c.next.AssessAutomation(ctx, t, intent)
}

func (c *Cache) Diagnose(ctx context.Context, t domain.Ticket, system domain.SystemKind, user *domain.UserInfo) (domain.Diagnosis, error) {
	return c.next.Diagnose(ctx, t, system, user)
}

func (c *Cache) ComposeNotification(ctx context.Context, kind domain.RecipientKind, t domain.Ticket, nctx domain.NoticeContext) (string, string, error) {
	return c.next.ComposeNotification(ctx, kind, t, nctx)
}

func (c *Cache) lookup(ctx context.Context, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("classification cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("classification cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("classification cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func contentKey(title, description string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(description))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
