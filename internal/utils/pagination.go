package utils

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/store"
)

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// PagedData is the data payload of list endpoints.
type PagedData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// ParsePagination reads page and per_page from the query string.
// per_page falls back to the configured default and may not exceed the maximum.
func ParsePagination(c *gin.Context, cfg config.PaginationConfig) (store.Page, Pagination, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return store.Page{}, Pagination{}, err
	}
	perPage, err := queryInt(c, "per_page", cfg.ItemsPerPage)
	if err != nil {
		return store.Page{}, Pagination{}, err
	}
	if page < 1 {
		return store.Page{}, Pagination{}, fmt.Errorf("page must be at least 1")
	}
	if perPage < 1 || perPage > cfg.MaxItemsPerPage {
		return store.Page{}, Pagination{}, fmt.Errorf("per_page must be between 1 and %d", cfg.MaxItemsPerPage)
	}
	if page-1 > math.MaxInt/perPage {
		return store.Page{}, Pagination{}, fmt.Errorf("page is out of range")
	}
	return store.Page{Limit: perPage, Offset: (page - 1) * perPage}, Pagination{Page: page, PerPage: perPage}, nil
}

// Paged builds a list payload once the total is known.
func Paged(items interface{}, p Pagination, total int64) PagedData {
	p.Total = total
	if p.PerPage > 0 {
		p.TotalPages = (total + int64(p.PerPage) - 1) / int64(p.PerPage)
	}
	return PagedData{Items: items, Pagination: p}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
