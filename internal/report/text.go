// Package report renders aggregated transaction reports for humans.
package report

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"bookkeeper/internal/core"
)

// FormatMoney renders cents as dollars with two decimals and a leading minus
// for negative amounts, e.g. -$12.50.
func FormatMoney(m core.Money) string {
	d := decimal.New(m.Cents, -2)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Write renders the three report sections in the fixed text layout.
func Write(w io.Writer, r core.Report) error {
	var b strings.Builder

	section(&b, "Total Balance")
	b.WriteString(FormatMoney(r.Total))
	b.WriteString("\n")

	section(&b, "Category Expenses")
	for _, c := range r.Categories.Items {
		b.WriteString(c.Name)
		b.WriteString(": ")
		b.WriteString(FormatMoney(c.Amount))
		b.WriteString("\n")
	}

	section(&b, "Daily Balances")
	for _, d := range r.Daily {
		b.WriteString(d.Date.String())
		b.WriteString(" :: ")
		b.WriteString(FormatMoney(d.Amount))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string) {
	b.WriteString("\n==== ")
	b.WriteString(title)
	b.WriteString(" ====\n\n")
}
