package virtual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowCount(t *testing.T) {
	tests := []struct {
		name    string
		loaded  int
		hasMore bool
		want    int
	}{
		{name: "nothing loaded, more expected", loaded: 0, hasMore: true, want: 1},
		{name: "nothing loaded, exhausted", loaded: 0, hasMore: false, want: 0},
		{name: "sentinel row", loaded: 27, hasMore: true, want: 28},
		{name: "exhausted", loaded: 27, hasMore: false, want: 27},
		{name: "negative", loaded: -3, hasMore: false, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RowCount(tt.loaded, tt.hasMore))
		})
	}
}

func TestVirtualizer_Range(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		offset    int
		viewport  int
		wantStart int
		wantEnd   int
	}{
		{name: "rows 40-50 visible", count: 100, offset: 40 * 35, viewport: 11 * 35, wantStart: 35, wantEnd: 55},
		{name: "top of list", count: 100, offset: 0, viewport: 10 * 35, wantStart: 0, wantEnd: 14},
		{name: "clamped at end", count: 52, offset: 40 * 35, viewport: 11 * 35, wantStart: 35, wantEnd: 51},
		{name: "short list", count: 3, offset: 0, viewport: 500, wantStart: 0, wantEnd: 2},
		{name: "offset past end", count: 10, offset: 10000, viewport: 100, wantStart: 4, wantEnd: 9},
		{name: "negative offset", count: 10, offset: -50, viewport: 35, wantStart: 0, wantEnd: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.count, DefaultConfig())
			start, end, ok := v.Range(tt.offset, tt.viewport)
			require.True(t, ok)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestVirtualizer_Empty(t *testing.T) {
	v := New(0, DefaultConfig())

	_, _, ok := v.Range(0, 100)
	assert.False(t, ok)
	assert.Nil(t, v.Items(0, 100))
	assert.Equal(t, 0, v.TotalSize())
	assert.Equal(t, -1, v.IndexAt(0))
}

func TestVirtualizer_Items(t *testing.T) {
	v := New(100, DefaultConfig())

	items := v.Items(40*35, 11*35)
	require.Len(t, items, 21)
	assert.Equal(t, Item{Index: 35, Start: 35 * 35, Size: 35}, items[0])
	assert.Equal(t, Item{Index: 55, Start: 55 * 35, Size: 35}, items[len(items)-1])
	assert.Equal(t, 56*35, items[len(items)-1].End())
}

func TestVirtualizer_TotalSize(t *testing.T) {
	v := New(RowCount(27, true), DefaultConfig())
	assert.Equal(t, 28*35, v.TotalSize())

	v.SetCount(RowCount(27, false))
	assert.Equal(t, 27*35, v.TotalSize())
}

func TestVirtualizer_Estimate(t *testing.T) {
	// Even rows 10 high, odd rows 30 high.
	cfg := Config{
		Overscan: 1,
		Estimate: func(i int) int {
			if i%2 == 0 {
				return 10
			}
			return 30
		},
	}
	v := New(6, cfg)

	assert.Equal(t, 120, v.TotalSize())

	tests := []struct {
		offset int
		want   int
	}{
		{offset: 0, want: 0},
		{offset: 9, want: 0},
		{offset: 10, want: 1},
		{offset: 39, want: 1},
		{offset: 40, want: 2},
		{offset: 119, want: 5},
		{offset: 500, want: 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, v.IndexAt(tt.offset), "offset %d", tt.offset)
	}

	items := v.Items(40, 40)
	require.Len(t, items, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{items[0].Index, items[1].Index, items[2].Index, items[3].Index})
	assert.Equal(t, Item{Index: 3, Start: 50, Size: 30}, items[2])
}

func TestVirtualizer_EstimateClampsSize(t *testing.T) {
	v := New(4, Config{Estimate: func(int) int { return 0 }})
	assert.Equal(t, 4, v.TotalSize())
}

func TestNew_Defaults(t *testing.T) {
	v := New(10, Config{Overscan: -2})
	assert.Equal(t, 350, v.TotalSize())

	start, end, ok := v.Range(35, 35)
	require.True(t, ok)
	assert.Equal(t, 1, start)
	assert.Equal(t, 1, end)
}
