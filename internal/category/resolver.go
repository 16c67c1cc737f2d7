package category

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/pkg/models"
	log "github.com/sirupsen/logrus"
)

// Creator creates categories in the catalog
type Creator interface {
	CreateCategory(ctx context.Context, req catalog.CreateCategoryRequest) (int64, error)
}

// Resolver maps category paths to catalog category ids, creating missing
// categories along the way. Lookups go cache first, then the snapshot of
// categories that existed before the run, then the API.
type Resolver struct {
	api      Creator
	snapshot []models.Category
	now      func() time.Time
}

// NewResolver creates a resolver over a snapshot taken at the start of a run
func NewResolver(api Creator, snapshot []models.Category) *Resolver {
	return &Resolver{
		api:      api,
		snapshot: snapshot,
		now:      time.Now,
	}
}

// Resolve walks path from root to leaf and returns the deepest category it
// could resolve. ok is false when nothing resolved. A segment that cannot be
// created, even after a retry with a suffixed slug, ends the walk early and
// the last resolved ancestor is returned.
func (r *Resolver) Resolve(ctx context.Context, path []string, cache *Cache) (id int64, ok bool) {
	var (
		parent     *int64
		parentSlug string
	)

	for _, raw := range path {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		entry, found := cache.Get(parent, name)
		if !found {
			entry, found = r.fromSnapshot(parent, name)
			if found {
				cache.Put(parent, name, entry)
			}
		}
		if !found {
			entry, found = r.create(ctx, parent, parentSlug, name)
			if !found {
				break
			}
			cache.Put(parent, name, entry)
		}

		resolved := entry.ID
		parent = &resolved
		parentSlug = entry.Slug
	}

	if parent == nil {
		return 0, false
	}
	return *parent, true
}

func (r *Resolver) fromSnapshot(parent *int64, name string) (Entry, bool) {
	for _, c := range r.snapshot {
		if strings.EqualFold(c.Name, name) && sameParent(c.ParentID, parent) {
			return Entry{ID: c.ID, Slug: c.Slug}, true
		}
	}
	return Entry{}, false
}

func (r *Resolver) create(ctx context.Context, parent *int64, parentSlug, name string) (Entry, bool) {
	slug := childSlug(parentSlug, name)
	logger := log.WithFields(log.Fields{"category": name, "slug": slug})

	id, err := r.api.CreateCategory(ctx, catalog.CreateCategoryRequest{
		Name: name, Slug: slug, ParentID: parent,
	})
	if err == nil {
		logger.Debug("Created category")
		return Entry{ID: id, Slug: slug}, true
	}

	// Most failures are slug collisions; retry once with a unique suffix
	retrySlug := slug + "-" + strconv.FormatInt(r.now().UnixMilli(), 10)
	logger.WithError(err).Debugf("Category create failed, retrying as %s", retrySlug)

	id, err = r.api.CreateCategory(ctx, catalog.CreateCategoryRequest{
		Name: name, Slug: retrySlug, ParentID: parent,
	})
	if err != nil {
		logger.WithError(err).Warn("Could not create category, keeping parent category")
		return Entry{}, false
	}
	return Entry{ID: id, Slug: retrySlug}, true
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
