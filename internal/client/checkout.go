package client

import (
	"context"
	"errors"
	"net/http"
)

var ErrMissingReceipt = errors.New("checkout response carried no receipt")

// Checkout submits the cart. idempotencyKey identifies this specific request.
func (c *Client) Checkout(ctx context.Context, token, idempotencyKey string, req CheckoutRequest) (*CheckoutResponse, error) {
	var res CheckoutResponse
	headers := map[string]string{IdempotencyHeader: idempotencyKey}
	if err := c.do(ctx, http.MethodPost, "/app/checkout", token, req, &res, headers); err != nil {
		return nil, err
	}
	if res.Receipt == nil {
		return nil, ErrMissingReceipt
	}
	return &res, nil
}
