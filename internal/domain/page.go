package domain

import "github.com/utafrali/storefront/pkg/pagination"

// PageResult is one page of catalog results plus navigation metadata.
// Items and PageLinks are never nil so they encode as JSON arrays.
type PageResult struct {
	Items       []Product         `json:"items"`
	TotalCount  int               `json:"total_count"`
	TotalPages  int               `json:"total_pages"`
	CurrentPage int               `json:"current_page"`
	PageSize    int               `json:"page_size"`
	PageLinks   []pagination.Link `json:"page_links"`
	HasNext     bool              `json:"has_next"`
	HasPrev     bool              `json:"has_prev"`
	Filter      CatalogFilter     `json:"filter"`
}
