package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
)

type auditFields struct {
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
}

type sampleRow struct {
	auditFields
	ID      id.ID       `db:"id"`
	Name    string      `db:"name"`
	Price   types.Money `db:"price"`
	Lines   []string    `db:"-"`
	scratch int
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRow]()
	assert.ElementsMatch(t, []string{"id", "name", "price", "version", "created_at"}, cols)

	assert.Equal(t, cols, ExtractDBColumns[*sampleRow](), "pointer type yields the same columns")
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	row := &sampleRow{
		auditFields: auditFields{Version: 3, CreatedAt: now},
		ID:          id.New(),
		Name:        "Shirt",
		Price:       types.MustMoney("450.00"),
		Lines:       []string{"ignored"},
		scratch:     7,
	}

	m := StructToMap(row)
	require.Len(t, m, 5)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, "Shirt", m["name"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.True(t, row.Price.Equal(m["price"].(types.Money)))
	assert.NotContains(t, m, "Lines")

	assert.Nil(t, StructToMap((*sampleRow)(nil)))
	assert.Nil(t, StructToMap(42))
}
