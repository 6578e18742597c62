// Package virtual computes which rows of a long list need rendering.
//
// Only rows intersecting the viewport, plus Overscan rows on either side,
// are materialized. Row heights are either uniform (RowHeight) or supplied
// per row by Estimate.
package virtual

import "sort"

const (
	// DefaultOverscan is the number of extra rows rendered past each edge.
	DefaultOverscan = 5

	// DefaultRowHeight is the uniform row height.
	DefaultRowHeight = 35
)

// RowCount is the number of rows for loaded items. While more data may
// exist, one sentinel row is appended for the loading indicator.
func RowCount(loaded int, hasMore bool) int {
	if loaded < 0 {
		loaded = 0
	}
	if hasMore {
		return loaded + 1
	}
	return loaded
}

// Config controls row sizing.
type Config struct {
	Overscan  int
	RowHeight int

	// Estimate, when set, returns the height of row i and overrides
	// RowHeight. Heights below 1 are treated as 1.
	Estimate func(i int) int
}

// DefaultConfig returns overscan 5 with 35-unit rows.
func DefaultConfig() Config {
	return Config{Overscan: DefaultOverscan, RowHeight: DefaultRowHeight}
}

// Item is one row to render.
type Item struct {
	Index int
	Start int
	Size  int
}

// End returns the offset just past the row.
func (it Item) End() int {
	return it.Start + it.Size
}

// Virtualizer maps scroll offsets to row ranges for a list of Count rows.
type Virtualizer struct {
	config Config
	count  int

	// offsets[i] is the start of row i; offsets[count] is the total size.
	// Only built when Estimate is set.
	offsets []int
}

// New creates a virtualizer for count rows.
func New(count int, config Config) *Virtualizer {
	if config.Overscan < 0 {
		config.Overscan = 0
	}
	if config.RowHeight <= 0 {
		config.RowHeight = DefaultRowHeight
	}
	v := &Virtualizer{config: config}
	v.SetCount(count)
	return v
}

// SetCount changes the number of rows.
func (v *Virtualizer) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	v.count = count
	v.offsets = nil
	if v.config.Estimate == nil {
		return
	}

	v.offsets = make([]int, count+1)
	for i := 0; i < count; i++ {
		v.offsets[i+1] = v.offsets[i] + v.size(i)
	}
}

// Count returns the number of rows.
func (v *Virtualizer) Count() int {
	return v.count
}

// TotalSize returns the scrollable height of all rows.
func (v *Virtualizer) TotalSize() int {
	if v.offsets != nil {
		return v.offsets[v.count]
	}
	return v.count * v.config.RowHeight
}

// IndexAt returns the row containing offset, clamped to [0, Count-1].
// It returns -1 for an empty list.
func (v *Virtualizer) IndexAt(offset int) int {
	if v.count == 0 {
		return -1
	}
	if offset <= 0 {
		return 0
	}

	var i int
	if v.offsets != nil {
		i = sort.Search(v.count, func(i int) bool { return v.offsets[i+1] > offset })
	} else {
		i = offset / v.config.RowHeight
	}
	return min(i, v.count-1)
}

// Range returns the inclusive row range to render for a viewport of the
// given size scrolled to offset, widened by Overscan and clamped to the
// list. ok is false for an empty list.
func (v *Virtualizer) Range(offset, viewport int) (start, end int, ok bool) {
	if v.count == 0 {
		return 0, 0, false
	}
	if viewport < 1 {
		viewport = 1
	}

	first := v.IndexAt(offset)
	last := v.IndexAt(offset + viewport - 1)

	start = max(first-v.config.Overscan, 0)
	end = min(last+v.config.Overscan, v.count-1)
	return start, end, true
}

// Items returns the rows to render with their positions.
func (v *Virtualizer) Items(offset, viewport int) []Item {
	start, end, ok := v.Range(offset, viewport)
	if !ok {
		return nil
	}

	items := make([]Item, 0, end-start+1)
	for i := start; i <= end; i++ {
		items = append(items, Item{Index: i, Start: v.start(i), Size: v.size(i)})
	}
	return items
}

func (v *Virtualizer) start(i int) int {
	if v.offsets != nil {
		return v.offsets[i]
	}
	return i * v.config.RowHeight
}

func (v *Virtualizer) size(i int) int {
	if v.config.Estimate == nil {
		return v.config.RowHeight
	}
	return max(v.config.Estimate(i), 1)
}
