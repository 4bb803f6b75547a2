package core

// ListParams is the shared pagination + search shape for listing reads.
// PageIndex is 1-based, matching the public API.
type ListParams struct {
	PageIndex int    `json:"page_index"`
	PageSize  int    `json:"page_size"`
	Search    string `json:"search"`
}

func (p ListParams) validate() error {
	if p.PageIndex < 1 {
		return Invalidf("page_index must be at least 1")
	}
	if p.PageSize < 1 || p.PageSize > 500 {
		return Invalidf("page_size must be between 1 and 500")
	}
	return nil
}

func (p ListParams) offset() int {
	return (p.PageIndex - 1) * p.PageSize
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
