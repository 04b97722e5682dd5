package client

import (
	"context"
	"fmt"
	"net/http"
)

// ListPremios fetches the public catalog. No token is sent.
func (c *Client) ListPremios(ctx context.Context, limit int) ([]Premio, error) {
	var page Paginated[Premio]
	path := fmt.Sprintf("/store/premios?limit=%d", limit)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &page, nil); err != nil {
		return nil, err
	}
	return page.Data, nil
}
