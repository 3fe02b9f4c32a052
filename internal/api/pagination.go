package api

import (
	"net/http"
	"strconv"
)

// List endpoints take limit/offset query parameters. Bucket tables grow by
// one row per pool per window, so a hard cap keeps scans bounded.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// Page echoes the applied window back to the caller. HasMore is inferred
// from a full page, which spares a count query on every request.
type Page struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func parsePage(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = defaultLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func pageOf(limit, offset, returned int) *Page {
	return &Page{Limit: limit, Offset: offset, HasMore: returned == limit}
}
