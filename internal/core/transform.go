package core

import "fmt"

// NormalizeFunc turns a raw vendor string into its clean display name.
type NormalizeFunc func(company string) string

// Transform parses the date and amount of a raw record and attaches the
// normalized vendor name. No partial transaction is returned on error.
func Transform(raw RawTransaction, normalize NormalizeFunc) (Transaction, error) {
	date, err := ParseDate(raw.Date)
	if err != nil {
		return Transaction{}, &ParseError{Field: "Date", Value: raw.Date, Err: err}
	}

	cents, err := ParseAmountToCents(string(raw.Amount))
	if err != nil {
		return Transaction{}, &ParseError{Field: "Amount", Value: string(raw.Amount), Err: err}
	}

	t := Transaction{
		Date:         date,
		Amount:       Money{Cents: cents},
		Company:      raw.Company,
		CleanCompany: normalize(raw.Company),
	}
	if raw.Ledger != nil {
		t.Ledger = *raw.Ledger
		t.HasLedger = true
	}
	return t, nil
}

// TransformAll transforms every record in order and stops at the first failure.
func TransformAll(raws []RawTransaction, normalize NormalizeFunc) ([]Transaction, error) {
	out := make([]Transaction, 0, len(raws))
	for i, raw := range raws {
		t, err := Transform(raw, normalize)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
