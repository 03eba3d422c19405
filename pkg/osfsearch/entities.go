package osfsearch

import (
	"context"
	"fmt"
	"time"
)

// SaveNode stores n and runs the node-saved hook. The returned flag reports
// whether the index write succeeded; a failed index write is not an error.
func (c *Client) SaveNode(ctx context.Context, n *Node) (indexed bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("save_node", start, err) }()

	if n == nil {
		return false, errNilEntity
	}
	ctx = c.ctx(ctx)
	if err := c.entities.SaveNode(ctx, n); err != nil {
		return false, fmt.Errorf("save node: %w", err)
	}
	out, err := c.hookSvc.NodeSaved(ctx, n.ID)
	if err != nil {
		return false, fmt.Errorf("node saved hook: %w", err)
	}
	return out.Indexed, nil
}

// SaveUser stores u and runs the user-saved hook.
func (c *Client) SaveUser(ctx context.Context, u *User) (indexed bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("save_user", start, err) }()

	if u == nil {
		return false, errNilEntity
	}
	ctx = c.ctx(ctx)
	if err := c.entities.SaveUser(ctx, u); err != nil {
		return false, fmt.Errorf("save user: %w", err)
	}
	out, err := c.hookSvc.UserSaved(ctx, u.ID)
	if err != nil {
		return false, fmt.Errorf("user saved hook: %w", err)
	}
	return out.Indexed, nil
}

// PurgeNode removes the node from the store and from the index.
func (c *Client) PurgeNode(ctx context.Context, id string) (indexed bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("purge_node", start, err) }()

	ctx = c.ctx(ctx)
	if err := c.entities.DeleteNode(ctx, id); err != nil {
		return false, fmt.Errorf("delete node: %w", err)
	}
	out, err := c.hookSvc.NodeDeleted(ctx, id)
	if err != nil {
		return false, fmt.Errorf("node deleted hook: %w", err)
	}
	return out.Indexed, nil
}

// UpdateNode writes n to the index without touching the store. Nodes that
// must not be searchable are removed instead.
func (c *Client) UpdateNode(ctx context.Context, n *Node) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_node", start, err) }()
	if n == nil {
		return errNilEntity
	}
	return c.indexSvc.UpdateNode(c.ctx(ctx), n)
}

// UpdateUser writes u to the index, or removes it when inactive.
func (c *Client) UpdateUser(ctx context.Context, u *User) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_user", start, err) }()
	if u == nil {
		return errNilEntity
	}
	return c.indexSvc.UpdateUser(c.ctx(ctx), u)
}

// DeleteNode removes n from the index.
func (c *Client) DeleteNode(ctx context.Context, n *Node) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_node", start, err) }()
	if n == nil {
		return errNilEntity
	}
	return c.indexSvc.DeleteNode(c.ctx(ctx), n)
}

// BulkUpdateContributors rewrites the contributor lists of nodes in one
// engine request. Nodes absent from the index are skipped.
func (c *Client) BulkUpdateContributors(ctx context.Context, nodes []*Node) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("bulk_update_contributors", start, err) }()
	return c.indexSvc.BulkUpdateContributors(c.ctx(ctx), nodes)
}
