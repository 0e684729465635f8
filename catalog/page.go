package catalog

const (
	// DefaultPageSize is used when a page size is not provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows a page can hold.
	MaxPageSize = 100
)

// NormalizePageSize enforces the default and maximum page sizes.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// PageCount returns how many pages total rows span at the given size.
func PageCount(total, pageSize int) int {
	pageSize = NormalizePageSize(pageSize)
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate returns the slice of records shown on page pageIndex (0-based).
// Out of range pages are empty.
func Paginate(records []PriceRecord, pageIndex, pageSize int) []PriceRecord {
	pageSize = NormalizePageSize(pageSize)
	if pageIndex < 0 {
		return nil
	}
	start := pageIndex * pageSize
	if start >= len(records) {
		return nil
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
