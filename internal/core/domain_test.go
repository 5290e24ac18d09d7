package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func ledger(s string) *string { return &s }

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-03-05")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d != NewDate(2020, 3, 5) {
		t.Fatalf("expected 2020-03-05, got %v", d)
	}
	if d.String() != "2020-03-05" {
		t.Fatalf("unexpected string form %q", d.String())
	}
	for _, bad := range []string{"", "2020-13-01", "2020-02-30", "05/03/2020", "2020-3-5"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestDateAddDaysCrossesMonth(t *testing.T) {
	if got := NewDate(2020, 2, 28).AddDays(1); got != NewDate(2020, 2, 29) {
		t.Fatalf("expected leap day, got %v", got)
	}
	if got := NewDate(2020, 12, 31).AddDays(1); got != NewDate(2021, 1, 1) {
		t.Fatalf("expected new year, got %v", got)
	}
}

func TestRawTransactionDecode(t *testing.T) {
	body := `[
		{"Date":"2013-12-22","Ledger":"Phone & Internet Expense","Amount":"-110.71","Company":"SHAW CABLESYSTEMS CALGARY AB"},
		{"Date":"2013-12-21","Ledger":null,"Amount":20,"Company":"PAYMENT - THANK YOU","Extra":"ignored"}
	]`
	var raws []RawTransaction
	if err := json.Unmarshal([]byte(body), &raws); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 records, got %d", len(raws))
	}
	if raws[0].Ledger == nil || *raws[0].Ledger != "Phone & Internet Expense" {
		t.Fatalf("unexpected ledger %v", raws[0].Ledger)
	}
	if raws[0].Amount != "-110.71" {
		t.Fatalf("unexpected amount %q", raws[0].Amount)
	}
	if raws[1].Ledger != nil {
		t.Fatalf("expected nil ledger, got %q", *raws[1].Ledger)
	}
	if raws[1].Amount != "20" {
		t.Fatalf("expected numeric amount as text, got %q", raws[1].Amount)
	}
}

func TestTransform(t *testing.T) {
	raw := RawTransaction{Date: "2020-03-05", Amount: "12.5", Company: "  vancouver cabs ", Ledger: ledger("Travel")}
	got, err := Transform(raw, upper)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got.Date != NewDate(2020, 3, 5) || got.Amount.Cents != 1250 {
		t.Fatalf("unexpected transaction %+v", got)
	}
	if got.CleanCompany != "VANCOUVER CABS" || got.Company != raw.Company {
		t.Fatalf("unexpected company fields %+v", got)
	}
	if !got.HasLedger || got.Ledger != "Travel" {
		t.Fatalf("unexpected ledger %+v", got)
	}
}

func TestTransformParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		raw   RawTransaction
		field string
		cause error
	}{
		{"bad date", RawTransaction{Date: "2020/03/05", Amount: "1"}, "Date", ErrInvalidDate},
		{"empty date", RawTransaction{Amount: "1"}, "Date", ErrInvalidDate},
		{"bad amount", RawTransaction{Date: "2020-03-05", Amount: "twelve"}, "Amount", ErrInvalidAmount},
		{"empty amount", RawTransaction{Date: "2020-03-05"}, "Amount", ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Transform(tc.raw, upper)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, pe.Field)
			}
			if !errors.Is(err, tc.cause) {
				t.Errorf("expected cause %v, got %v", tc.cause, err)
			}
		})
	}
}

func TestTransformAllStopsAtFirstFailure(t *testing.T) {
	raws := []RawTransaction{
		{Date: "2020-01-01", Amount: "1"},
		{Date: "2020-01-02", Amount: "oops"},
		{Date: "bad", Amount: "1"},
	}
	got, err := TransformAll(raws, upper)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got != nil {
		t.Fatalf("expected no partial result, got %d", len(got))
	}
	if !strings.Contains(err.Error(), "transaction 1") {
		t.Fatalf("expected index in error, got %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Field != "Amount" {
		t.Fatalf("expected Amount ParseError, got %v", err)
	}
}
