package listingRepo

import (
	"context"
	"encoding/json"
	"time"

	"tripnest/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const listingCacheTTL = 10 * time.Minute

// CachedListingRepo is a read-through cache in front of the listing store.
// Listings change rarely and every booking request reads one, so cache
// staleness is bounded by the TTL and never affects an existing booking:
// the total price is fixed at creation.
type CachedListingRepo struct {
	inner  ListingRepository
	cache  *redis.Client
	logger *zap.Logger
}

// NewCachedListingRepo wraps a repository with a redis read-through cache.
func NewCachedListingRepo(inner ListingRepository, cache *redis.Client, logger *zap.Logger) *CachedListingRepo {
	return &CachedListingRepo{inner: inner, cache: cache, logger: logger}
}

func listingCacheKey(id string) string {
	return "listing:" + id
}

// GetByID serves from cache when possible, falling back to the store. A
// broken cache degrades to direct reads instead of failing the request.
func (r *CachedListingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	key := listingCacheKey(id)

	if data, err := r.cache.Get(ctx, key).Result(); err == nil {
		var listing models.Listing
		if err := json.Unmarshal([]byte(data), &listing); err == nil {
			return &listing, nil
		}
		r.cache.Del(ctx, key)
	}

	listing, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(listing); err == nil {
		if err := r.cache.Set(ctx, key, data, listingCacheTTL).Err(); err != nil {
			r.logger.Debug("listing cache write failed", zap.String("listingID", id), zap.Error(err))
		}
	}
	return listing, nil
}
