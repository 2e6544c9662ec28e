package pagination

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*size well inside int range.
	MaxPage = 100_000
)

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func clampPage(page int) int {
	return min(max(page, 1), MaxPage)
}

// Calculate turns a 1-based page and a size into offset and limit.
// Out of range sizes fall back to DefaultPageSize and pages are clamped to
// [1, MaxPage].
func Calculate(page, size int) (offset, limit int) {
	page = clampPage(page)
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

func NewMeta(page, limit int, offset int, total int64) Meta {
	page = clampPage(page)
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Meta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    int64(offset+limit) < total,
	}
}
