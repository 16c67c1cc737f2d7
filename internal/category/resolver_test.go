package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/internal/catalog/catalogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCreator is a mock implementation of Creator
type MockCreator struct {
	mock.Mock
}

var _ Creator = (*MockCreator)(nil)

func (m *MockCreator) CreateCategory(ctx context.Context, req catalog.CreateCategoryRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rings", "rings"},
		{"Bath & Body", "bath-body"},
		{"  Men's Shoes ", "men-s-shoes"},
		{"Ærlig Øl", "rlig-l"},
		{"!!!", "category"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestResolveEmptyPath(t *testing.T) {
	creator := &MockCreator{}
	r := NewResolver(creator, nil)

	id, ok := r.Resolve(context.Background(), nil, NewCache())
	assert.False(t, ok)
	assert.Zero(t, id)
	creator.AssertNotCalled(t, "CreateCategory", mock.Anything, mock.Anything)
}

func TestResolveCreatesHierarchy(t *testing.T) {
	fake := catalogtest.New()
	r := NewResolver(fake, nil)
	cache := NewCache()

	id, ok := r.Resolve(context.Background(), []string{"Jewellery", "Rings"}, cache)
	require.True(t, ok)

	rings, found := fake.CategoryBySlug("jewellery-rings")
	require.True(t, found)
	assert.Equal(t, rings.ID, id)

	jewellery, found := fake.CategoryBySlug("jewellery")
	require.True(t, found)
	require.NotNil(t, rings.ParentID)
	assert.Equal(t, jewellery.ID, *rings.ParentID)
	assert.Nil(t, jewellery.ParentID)
	assert.Equal(t, 2, cache.Len())
}

func TestResolveReusesCacheAcrossProducts(t *testing.T) {
	fake := catalogtest.New()
	r := NewResolver(fake, nil)
	cache := NewCache()
	path := []string{"Jewellery", "Rings"}

	first, ok := r.Resolve(context.Background(), path, cache)
	require.True(t, ok)
	second, ok := r.Resolve(context.Background(), []string{"jewellery", "RINGS"}, cache)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.CategoryCreates("Jewellery"))
	assert.Equal(t, 1, fake.CategoryCreates("Rings"))
}

func TestResolveUsesSnapshot(t *testing.T) {
	fake := catalogtest.New()
	rootID := fake.Seed("Jewellery", "jewellery", nil)
	ringsID := fake.Seed("Rings", "jewellery-rings", &rootID)
	// Same name under a different parent must not match
	fake.Seed("Rings", "sale-rings", nil)

	snapshot, err := fake.ListCategories(context.Background())
	require.NoError(t, err)

	r := NewResolver(fake, snapshot)
	id, ok := r.Resolve(context.Background(), []string{"JEWELLERY", "rings", "Gold"}, NewCache())
	require.True(t, ok)

	gold, found := fake.CategoryBySlug("jewellery-rings-gold")
	require.True(t, found)
	assert.Equal(t, gold.ID, id)
	require.NotNil(t, gold.ParentID)
	assert.Equal(t, ringsID, *gold.ParentID)
	assert.Equal(t, 0, fake.CategoryCreates("Jewellery"))
	assert.Equal(t, 0, fake.CategoryCreates("Rings"))
	assert.Equal(t, 1, fake.CategoryCreates("Gold"))
}

func TestResolveRetriesWithSuffixedSlug(t *testing.T) {
	fake := catalogtest.New()
	// A category with a colliding slug that is not in the snapshot
	fake.Seed("Rings (old)", "rings", nil)

	r := NewResolver(fake, nil)
	r.now = fixedClock

	id, ok := r.Resolve(context.Background(), []string{"Rings"}, NewCache())
	require.True(t, ok)

	created, found := fake.CategoryBySlug("rings-1700000000000")
	require.True(t, found)
	assert.Equal(t, created.ID, id)
	assert.Equal(t, 2, fake.CategoryCreates("Rings"))
}

func TestResolveReturnsLastParentOnFailure(t *testing.T) {
	creator := &MockCreator{}
	creator.On("CreateCategory", mock.Anything, catalog.CreateCategoryRequest{Name: "Jewellery", Slug: "jewellery"}).
		Return(int64(7), nil).Once()
	creator.On("CreateCategory", mock.Anything, mock.MatchedBy(func(req catalog.CreateCategoryRequest) bool {
		return req.Name == "Rings"
	})).Return(int64(0), errors.New("boom")).Twice()

	r := NewResolver(creator, nil)
	r.now = fixedClock
	cache := NewCache()

	id, ok := r.Resolve(context.Background(), []string{"Jewellery", "Rings", "Gold"}, cache)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	creator.AssertExpectations(t)
	creator.AssertNumberOfCalls(t, "CreateCategory", 3)

	_, cached := cache.Get(nil, "jewellery")
	assert.True(t, cached)
	parent := int64(7)
	_, cached = cache.Get(&parent, "rings")
	assert.False(t, cached, "failed segments are not cached")
}

func TestResolveRootFailure(t *testing.T) {
	creator := &MockCreator{}
	creator.On("CreateCategory", mock.Anything, mock.Anything).Return(int64(0), errors.New("down"))

	r := NewResolver(creator, nil)
	id, ok := r.Resolve(context.Background(), []string{"Rings"}, NewCache())
	assert.False(t, ok)
	assert.Zero(t, id)
	creator.AssertNumberOfCalls(t, "CreateCategory", 2)
}

func TestCacheKeysByParent(t *testing.T) {
	cache := NewCache()
	one := int64(1)
	cache.Put(nil, "Rings", Entry{ID: 10, Slug: "rings"})
	cache.Put(&one, "Rings", Entry{ID: 11, Slug: "jewellery-rings"})

	e, ok := cache.Get(nil, "rings")
	require.True(t, ok)
	assert.Equal(t, int64(10), e.ID)

	e, ok = cache.Get(&one, "RINGS")
	require.True(t, ok)
	assert.Equal(t, int64(11), e.ID)

	assert.Equal(t, 2, cache.Len())
}
