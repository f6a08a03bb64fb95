package repository

import (
	"context"
	"time"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

const defaultTemplateCacheTTL = 5 * time.Minute

// CachedTemplateStore keeps templates selected by id in process memory.
// Cached values are deep copies so callers cannot mutate them.
type CachedTemplateStore struct {
	next  TemplateStore
	cache *gocache.Cache
}

var _ TemplateStore = (*CachedTemplateStore)(nil)

func NewCachedTemplateStore(next TemplateStore, ttl time.Duration) *CachedTemplateStore {
	if ttl <= 0 {
		ttl = defaultTemplateCacheTTL
	}
	return &CachedTemplateStore{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *CachedTemplateStore) List(ctx context.Context) ([]domain.Template, error) {
	return s.next.List(ctx)
}

func (s *CachedTemplateStore) Save(ctx context.Context, t *domain.Template) error {
	if err := s.next.Save(ctx, t); err != nil {
		return err
	}
	s.cache.Delete(templateCacheKey(t.ID))
	return nil
}

func (s *CachedTemplateStore) SelectByID(ctx context.Context, id string) (*domain.Template, error) {
	key := templateCacheKey(id)
	if v, ok := s.cache.Get(key); ok {
		if cached, ok := v.(domain.Template); ok {
			clone := cached.Clone()
			return &clone, nil
		}
	}

	t, err := s.next.SelectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, t.Clone(), gocache.DefaultExpiration)
	return t, nil
}

// Delete invalidates after the underlying delete so a concurrent
// SelectByID cannot leave the removed template cached.
func (s *CachedTemplateStore) Delete(ctx context.Context, id string) error {
	err := s.next.Delete(ctx, id)
	s.cache.Delete(templateCacheKey(id))
	return err
}

func (s *CachedTemplateStore) Count(ctx context.Context) (int64, error) {
	return s.next.Count(ctx)
}

func templateCacheKey(id string) string {
	return "template:" + id
}
