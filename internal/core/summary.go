package core

// CategoryAmount represents an expense total aggregated by ledger.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// CategoryTotals holds per-ledger expense totals in first-seen order.
type CategoryTotals struct {
	Items []CategoryAmount
	index map[string]int
}

// Get returns the total for a ledger and whether it had any expenses.
func (c CategoryTotals) Get(ledger string) (Money, bool) {
	i, ok := c.index[ledger]
	if !ok {
		return Money{}, false
	}
	return c.Items[i].Amount, true
}

// Len returns the number of ledgers with at least one expense.
func (c CategoryTotals) Len() int {
	return len(c.Items)
}

func (c *CategoryTotals) add(ledger string, amount Money) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	i, ok := c.index[ledger]
	if !ok {
		c.index[ledger] = len(c.Items)
		c.Items = append(c.Items, CategoryAmount{Name: ledger, Amount: amount})
		return
	}
	c.Items[i].Amount = c.Items[i].Amount.Add(amount)
}

// DailyBalance is the net movement of a single calendar day.
type DailyBalance struct {
	Date   Date
	Amount Money
}

// Report bundles the three summary views of one transaction set.
type Report struct {
	Total      Money
	Categories CategoryTotals
	Daily      []DailyBalance
}
