package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	planCacheVersionKey = "plans:version"
	DefaultPlanCacheTTL = 10 * time.Minute
)

// PlanCache caches plan listings. Invalidate drops the listings that can
// contain plans of companyID.
type PlanCache interface {
	GetPlans(ctx context.Context, filter PlanFilter) ([]models.Plan, bool)
	SetPlans(ctx context.Context, filter PlanFilter, plans []models.Plan)
	Invalidate(ctx context.Context, companyID int64) error
}

// RedisPlanCache keys each listing by a version counter. Listings filtered
// by company use that company's counter, the rest use a global one. Bumping
// a counter orphans its entries, which then expire by TTL.
type RedisPlanCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisPlanCache(rdb *redis.Client, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = DefaultPlanCacheTTL
	}
	return &RedisPlanCache{redis: rdb, ttl: ttl}
}

func (c *RedisPlanCache) GetPlans(ctx context.Context, filter PlanFilter) ([]models.Plan, bool) {
	version, err := c.version(ctx, filter.CompanyID)
	if err != nil {
		return nil, false
	}

	cached, err := c.redis.Get(ctx, listCacheKey(version, filter)).Bytes()
	if err != nil {
		return nil, false
	}

	var plans []models.Plan
	if err := json.Unmarshal(cached, &plans); err != nil {
		zap.L().Warn("Dropping unreadable cached plan list", zap.Error(err))
		return nil, false
	}
	return plans, true
}

// SetPlans caches a listing in the background.
func (c *RedisPlanCache) SetPlans(_ context.Context, filter PlanFilter, plans []models.Plan) {
	data, err := json.Marshal(plans)
	if err != nil {
		zap.L().Warn("Failed to marshal plan list for cache", zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := c.version(ctx, filter.CompanyID)
		if err != nil {
			return
		}
		if err := c.redis.Set(ctx, listCacheKey(version, filter), data, c.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache plan list", zap.Error(err))
		}
	}()
}

// Invalidate bumps the company counter and the global one in one round trip.
func (c *RedisPlanCache) Invalidate(ctx context.Context, companyID int64) error {
	pipe := c.redis.TxPipeline()
	global := pipe.Incr(ctx, versionKey(0))
	if companyID > 0 {
		pipe.Incr(ctx, versionKey(companyID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate plan cache: %w", err)
	}
	zap.L().Debug("Plan cache invalidated",
		zap.Int64("company_id", companyID),
		zap.Int64("global_version", global.Val()))
	return nil
}

// version returns the counter for companyID (0 for the global one). A
// missing counter reads as 0.
func (c *RedisPlanCache) version(ctx context.Context, companyID int64) (int64, error) {
	v, err := c.redis.Get(ctx, versionKey(companyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func versionKey(companyID int64) string {
	if companyID <= 0 {
		return planCacheVersionKey
	}
	return fmt.Sprintf("%s:co:%d", planCacheVersionKey, companyID)
}

func listCacheKey(version int64, filter PlanFilter) string {
	return fmt.Sprintf("plans:v:%d:c:%s:co:%d:l:%d", version, filter.Category, filter.CompanyID, filter.Limit)
}
