package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// OffsetParams represents offset-based pagination query parameters, used by
// endpoints that expose offset/limit directly rather than a page number.
type OffsetParams struct {
	Offset int
	Limit  int
}

// ParseOffsetLimit parses offset/limit query parameters from an HTTP
// request. Missing values default to offset=0 and config.DefaultLimit;
// a negative offset, or a limit outside 1..config.MaxLimit, is an error.
func ParseOffsetLimit(r *http.Request, config Config) (OffsetParams, error) {
	params := OffsetParams{Offset: 0, Limit: config.DefaultLimit}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return params, fmt.Errorf("invalid query parameter: offset must be a non-negative integer")
		}
		params.Offset = offset
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > config.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", config.MaxLimit)
		}
		params.Limit = limit
	}

	return params, nil
}
