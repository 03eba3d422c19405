package osfsearch

import (
	"context"
	"time"
)

// Search runs a free-text query. An empty term or "*" matches everything.
func (c *Client) Search(ctx context.Context, q Query) (res *Results, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()
	return c.searchSvc.Query(c.ctx(ctx), q)
}

// SearchBody runs a raw query body against index, or the configured index
// when index is empty.
func (c *Client) SearchBody(ctx context.Context, index string, body Body) (res *Results, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_body", start, err) }()
	return c.searchSvc.Search(c.ctx(ctx), index, body)
}

// SearchContributor finds users to add as contributors.
func (c *Client) SearchContributor(ctx context.Context, q ContributorQuery) (page *ContributorPage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_contributor", start, err) }()
	return c.searchSvc.SearchContributor(c.ctx(ctx), q)
}
