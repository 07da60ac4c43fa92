package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		offset, limit    int
	}{
		{name: "first page", page: 1, size: 10, offset: 0, limit: 10},
		{name: "third page", page: 3, size: 10, offset: 20, limit: 10},
		{name: "zero page", page: 0, size: 5, offset: 0, limit: 5},
		{name: "zero size", page: 2, size: 0, offset: DefaultPageSize, limit: DefaultPageSize},
		{name: "too large", page: 1, size: 1000, offset: 0, limit: DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(2, 10, 10, 25)
	assert.EqualValues(t, 3, m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	last := NewMeta(3, 20, 10, 25)
	assert.False(t, last.HasNext)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("abc", 5))
	assert.Equal(t, 7, ParseIntDefault("7", 5))
}
