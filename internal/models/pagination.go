package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Paginate returns the [start, end) window for a page over total items. Non-positive page or
// size values select the first page with the default size.
func Paginate(page, size, total, defaultSize int) (start, end int, p Pagination) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	start = (page - 1) * size
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end, Pagination{Page: page, PageSize: size, TotalCount: total}
}
