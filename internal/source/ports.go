package source

import (
	"context"

	"bookkeeper/internal/core"
)

// TransactionSource produces the finite, ordered list of raw transactions
// to aggregate.
type TransactionSource interface {
	Fetch(ctx context.Context) ([]core.RawTransaction, error)
}

// Page is one page of the paginated transactions API.
type Page struct {
	TotalCount   int                   `json:"totalCount"`
	Page         int                   `json:"page"`
	Transactions []core.RawTransaction `json:"transactions"`
}
