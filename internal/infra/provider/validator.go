package provider

import (
	"context"
	"fmt"
	"net/http"
)

// TransactionInfo is the subset of the provider's transaction detail payload
// the gateway cares about.
type TransactionInfo struct {
	Hash          string `json:"hash"`
	Confirmations uint64 `json:"confirmations"`
	DoubleSpend   bool   `json:"double_spend"`
	Total         int64  `json:"total"`
	Fees          int64  `json:"fees"`
}

// GetTransaction fetches the provider's view of a transaction.
func (c *Client) GetTransaction(ctx context.Context, txHash string) (*TransactionInfo, error) {
	var info TransactionInfo
	if err := c.do(ctx, http.MethodGet, "txs/"+txHash, nil, &info); err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", txHash, err)
	}
	return &info, nil
}

// ValidateAddress asks the provider whether an address is well formed for the
// configured network.
func (c *Client) ValidateAddress(ctx context.Context, address string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, http.MethodGet, "addrs/"+address+"/validate", nil, &resp); err != nil {
		return false, fmt.Errorf("failed to validate address %s: %w", address, err)
	}
	return resp.Valid, nil
}

// IsConfirmed reports whether a transaction reached minConfirmations on the
// provider side. Useful as an on-demand double check outside the webhook path.
func (c *Client) IsConfirmed(ctx context.Context, txHash string, minConfirmations uint64) (bool, error) {
	info, err := c.GetTransaction(ctx, txHash)
	if err != nil {
		return false, err
	}
	return info.Confirmations >= minConfirmations, nil
}

// IsDoubleSpend reports the provider's double-spend flag for a transaction.
func (c *Client) IsDoubleSpend(ctx context.Context, txHash string) (bool, error) {
	info, err := c.GetTransaction(ctx, txHash)
	if err != nil {
		return false, err
	}
	return info.DoubleSpend, nil
}
