// Package httpapi fetches transactions from the paginated REST endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"bookkeeper/internal/core"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/source"
)

// maxPageBytes bounds a single page body.
const maxPageBytes = 10 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

var _ source.TransactionSource = (*Client)(nil)

// New creates a client for baseURL, e.g. http://resttest.bench.co/transactions.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, newHTTPClient(timeout))
}

// NewWithHTTPClient creates a client using the given HTTP client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Fetch walks pages starting at 1 until the accumulated count reaches the
// server-reported total. A non-2xx status ends the walk early and whatever
// was collected so far is returned without error. There is no retry.
func (c *Client) Fetch(ctx context.Context) ([]core.RawTransaction, error) {
	var (
		out   []core.RawTransaction
		total = -1
		page  = 1
	)

	for total < 0 || len(out) < total {
		p, ok, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, p.Transactions...)
		total = p.TotalCount
		if len(p.Transactions) == 0 && len(out) < total {
			slog.WarnContext(ctx, "Empty page before reaching total count",
				applog.FieldPage, page,
				"fetched", len(out),
				applog.FieldTotalCount, total)
			break
		}
		// Follow the server's page number but never revisit a page.
		next := p.Page + 1
		if next <= page {
			next = page + 1
		}
		page = next
	}

	slog.InfoContext(ctx, "Fetched transactions",
		applog.FieldSource, c.baseURL,
		applog.FieldTransactions, len(out),
		applog.FieldTotalCount, total)
	return out, nil
}

// fetchPage returns ok=false when the server answered with a non-2xx status.
func (c *Client) fetchPage(ctx context.Context, page int) (source.Page, bool, error) {
	url := fmt.Sprintf("%s/%d.json", c.baseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return source.Page{}, false, fmt.Errorf("build request for page %d: %w", page, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return source.Page{}, false, fmt.Errorf("get page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slog.WarnContext(ctx, "Stopping pagination on non-success response",
			applog.FieldPage, page,
			applog.FieldStatusCode, resp.StatusCode)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return source.Page{}, false, nil
	}

	var p source.Page
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(&p); err != nil {
		return source.Page{}, false, fmt.Errorf("decode page %d: %w", page, err)
	}
	slog.DebugContext(ctx, "Fetched page",
		applog.FieldPage, p.Page,
		applog.FieldTransactions, len(p.Transactions),
		applog.FieldTotalCount, p.TotalCount)
	return p, true, nil
}
