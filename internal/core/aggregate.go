package core

import (
	"fmt"
	"sort"
)

// TotalBalance returns the signed sum of all amounts.
func TotalBalance(txns []Transaction) Money {
	var total Money
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}

// CalculateCategoryTotals sums expenses by ledger. Deposits and zero amounts are
// skipped entirely. An expense without a ledger is a data error.
func CalculateCategoryTotals(txns []Transaction) (CategoryTotals, error) {
	var totals CategoryTotals
	for i, t := range txns {
		if !t.IsExpense() {
			continue
		}
		if !t.HasLedger {
			return CategoryTotals{}, fmt.Errorf("transaction %d (%s on %s): %w", i, t.CleanCompany, t.Date, ErrMissingLedger)
		}
		totals.add(t.Ledger, t.Amount.Neg())
	}
	return totals, nil
}

// DailyBalances returns one entry per calendar day between the earliest and
// latest transaction, inclusive. Days without transactions carry a zero amount.
func DailyBalances(txns []Transaction) []DailyBalance {
	if len(txns) == 0 {
		return []DailyBalance{}
	}

	sorted := make([]Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})

	first := sorted[0].Date
	last := sorted[len(sorted)-1].Date

	var out []DailyBalance
	idx := 0
	for day := first; !day.After(last.Time); day = day.AddDays(1) {
		var sum Money
		for idx < len(sorted) && sorted[idx].Date.Equal(day.Time) {
			sum = sum.Add(sorted[idx].Amount)
			idx++
		}
		out = append(out, DailyBalance{Date: day, Amount: sum})
	}
	return out
}

// BuildReport computes all summary views over the same transaction set.
func BuildReport(txns []Transaction) (Report, error) {
	categories, err := CalculateCategoryTotals(txns)
	if err != nil {
		return Report{}, fmt.Errorf("category totals: %w", err)
	}
	return Report{
		Total:      TotalBalance(txns),
		Categories: categories,
		Daily:      DailyBalances(txns),
	}, nil
}
