package googlebooks

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/url"
	"strconv"
)

// Search queries the volumes endpoint. Results are coerced into
// Volume records; entries the source returned without any usable
// volumeInfo are kept as-is and filtered downstream.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Volume, error) {
	if params.Query == "" && params.Author == "" {
		return nil, wrapError("search", "", ErrBadRequest)
	}

	query := url.Values{}

	// Build the q= expression.
	q := params.Query
	if params.Author != "" {
		if q != "" {
			q += " "
		}
		q += "inauthor:" + params.Author
	}
	query.Set("q", q)

	if params.OrderBy.Valid() {
		query.Set("orderBy", string(params.OrderBy))
	}
	if params.StartIndex > 0 {
		query.Set("startIndex", strconv.Itoa(params.StartIndex))
	}

	// Set result limit
	limit := params.Limit
	if limit <= 0 {
		limit = defaultNumResults
	}
	if limit > maxNumResults {
		limit = maxNumResults
	}
	query.Set("maxResults", strconv.Itoa(limit))

	// Execute request
	body, err := c.doRequest(ctx, "/volumes", query)
	if err != nil {
		return nil, wrapError("search", "", err)
	}

	// Parse response
	var resp struct {
		Items []rawVolume `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", "", fmt.Errorf("parse response: %w", err))
	}

	results := make([]Volume, 0, len(resp.Items))
	for i := range resp.Items {
		results = append(results, volumeToRecord(&resp.Items[i]))
	}

	return results, nil
}
