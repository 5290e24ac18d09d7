// Package file reads transactions from a JSON document on disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"bookkeeper/internal/core"
	"bookkeeper/internal/source"
)

// Source reads either a bare JSON array of transactions or a single page
// document as returned by the REST API.
type Source struct {
	path string
}

var _ source.TransactionSource = (*Source)(nil)

func New(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Fetch(_ context.Context) ([]core.RawTransaction, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read transactions file: %w", err)
	}
	return Decode(data)
}

// Decode parses transactions from a JSON array or page object.
func Decode(data []byte) ([]core.RawTransaction, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode transactions: empty document")
	}

	if trimmed[0] == '[' {
		var raws []core.RawTransaction
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("decode transactions array: %w", err)
		}
		return raws, nil
	}

	var page source.Page
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode transactions page: %w", err)
	}
	return page.Transactions, nil
}
