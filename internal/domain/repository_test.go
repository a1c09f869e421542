package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 0, Offset: -3, Search: "  shirt "}.Normalize()
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)
	assert.Equal(t, "shirt", f.Search)

	f = ListFilter{Limit: 10_000}.Normalize()
	assert.Equal(t, MaxLimit, f.Limit)
}

func TestListFilter_SortField(t *testing.T) {
	allowed := map[string]string{"name": "name", "createdAt": "created_at"}

	col, desc := ListFilter{OrderBy: "-createdAt"}.SortField(allowed, "name")
	assert.Equal(t, "created_at", col)
	assert.True(t, desc)

	col, desc = ListFilter{OrderBy: "password"}.SortField(allowed, "name")
	assert.Equal(t, "name", col)
	assert.False(t, desc)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	res := Page(items, ListFilter{Limit: 2, Offset: 1})
	assert.Equal(t, []int{2, 3}, res.Items)
	assert.Equal(t, int64(5), res.TotalCount)

	res = Page(items, ListFilter{Limit: 2, Offset: 10})
	assert.Empty(t, res.Items)
}

func TestHookRegistry_StopsOnError(t *testing.T) {
	r := NewHookRegistry[*int]()
	calls := 0
	r.On(BeforeCreate, func(ctx context.Context, v *int) error { calls++; return errors.New("boom") })
	r.On(BeforeCreate, func(ctx context.Context, v *int) error { calls++; return nil })

	v := 1
	err := r.Run(context.Background(), BeforeCreate, &v)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, r.Run(context.Background(), AfterCreate, &v))
}
