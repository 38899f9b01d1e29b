package reference

import (
	"context"
	"strings"
	"time"

	"github.com/cloudkhata/cloudkhata/internal/cache"
	"github.com/cloudkhata/cloudkhata/internal/reference/domain"
	"gorm.io/gorm"
)

// The HSN table changes at most when tax regulations do, so a short TTL
// is plenty and keeps the invoice generator off the database.
const hsnCacheTTL = 10 * time.Minute

type cachedRepository struct {
	inner domain.Repository
	codes cache.Cache[string, *domain.HSNCode]
}

// NewCachedRepository wraps the HSN repository with an in-memory TTL
// cache on category lookups.
func NewCachedRepository(db *gorm.DB) domain.Repository {
	return &cachedRepository{
		inner: NewRepository(db),
		codes: cache.NewTTLCache[string, *domain.HSNCode](),
	}
}

func (r *cachedRepository) ActiveByCategory(ctx context.Context, serviceCategory string) (*domain.HSNCode, error) {
	key := strings.ToLower(strings.TrimSpace(serviceCategory))
	if entry, ok := r.codes.Get(key); ok {
		return entry, nil
	}
	entry, err := r.inner.ActiveByCategory(ctx, serviceCategory)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		r.codes.Set(key, entry, hsnCacheTTL)
	}
	return entry, nil
}

func (r *cachedRepository) List(ctx context.Context) ([]domain.HSNCode, error) {
	return r.inner.List(ctx)
}
