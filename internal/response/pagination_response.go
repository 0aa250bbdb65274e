package response

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// NewPagination describes a page of count items starting at page (1-based).
func NewPagination(page, pageSize int, totalItems int64, count int) *Pagination {
	p := &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
	}
	if pageSize > 0 {
		p.TotalPages = (totalItems + int64(pageSize) - 1) / int64(pageSize)
	}
	if count > 0 {
		p.From = (page-1)*pageSize + 1
		p.To = p.From + count - 1
	}
	p.HasMore = int64(page) < p.TotalPages
	return p
}
