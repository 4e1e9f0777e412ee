package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFilter(t *testing.T) {
	f := NewFilter(0, 0, "", "sideways", "")
	assert.Equal(t, DefaultFilter().Page, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.Zero(t, f.Offset())

	f = NewFilter(3, 500, "end_date", "asc", "diop")
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, 200, f.Offset())
	assert.Equal(t, "end_date", f.OrderBy)
	assert.NotNil(t, f.Filters)
}

func TestNewPaginated_TotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPaginated([]int{}, tt.total, 1, tt.pageSize).TotalPages)
	}
}
