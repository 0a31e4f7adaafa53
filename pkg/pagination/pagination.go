package pagination

// WindowRadius is how many page links are shown on each side of the current page.
const WindowRadius = 2

// Link is one entry of the navigable page-link window.
type Link struct {
	Page      int  `json:"page"`
	IsCurrent bool `json:"is_current"`
}

// Window describes the visible slice of a result set and its navigation.
type Window struct {
	TotalCount  int    `json:"total_count"`
	PageSize    int    `json:"page_size"`
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	Offset      int    `json:"-"`
	Links       []Link `json:"page_links"`
	HasNext     bool   `json:"has_next"`
	HasPrev     bool   `json:"has_prev"`
}

// Compute derives the page window for totalCount items split into pages of
// pageSize. A requested page past the last page is clamped to the last page,
// and an empty result set always resolves to page 1 with no links.
func Compute(totalCount, pageSize, requestedPage int) Window {
	if totalCount < 0 {
		totalCount = 0
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if requestedPage < 1 {
		requestedPage = 1
	}

	totalPages := totalCount / pageSize
	if totalCount%pageSize > 0 {
		totalPages++
	}

	current := min(requestedPage, max(totalPages, 1))

	first := max(1, current-WindowRadius)
	last := min(totalPages, current+WindowRadius)
	links := make([]Link, 0, max(last-first+1, 0))
	for p := first; p <= last; p++ {
		links = append(links, Link{Page: p, IsCurrent: p == current})
	}

	return Window{
		TotalCount:  totalCount,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		CurrentPage: current,
		Offset:      (current - 1) * pageSize,
		Links:       links,
		HasNext:     current < totalPages,
		HasPrev:     current > 1,
	}
}

// Clamped reports whether requestedPage had to be moved to fit the window.
func (w Window) Clamped(requestedPage int) bool {
	return requestedPage != w.CurrentPage
}
