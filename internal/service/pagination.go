package service

// Pagination 统一分页元信息。hasMore = skip + 本页条数 < total。
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasMore     bool  `json:"hasMore"`
}

func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func newPagination(page, limit, returned int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	skip := (page - 1) * limit
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasMore:     int64(skip+returned) < total,
	}
}
