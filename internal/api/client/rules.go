package client

import (
	"context"
	"fmt"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// ListRules returns the server's active rule set.
func (c *Client) ListRules(ctx context.Context) (*domain.RuleSet, error) {
	var out domain.RuleSet
	if err := c.get(ctx, "/api/v1/rules", &out); err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	return &out, nil
}

// ReloadRules asks the server to re-read its rule file.
func (c *Client) ReloadRules(ctx context.Context) (*domain.RuleSet, error) {
	var out domain.RuleSet
	if err := c.post(ctx, "/api/v1/rules/reload", nil, &out); err != nil {
		return nil, fmt.Errorf("reloading rules: %w", err)
	}
	return &out, nil
}
