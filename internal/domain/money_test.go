package domain

import (
	"encoding/json"
	"testing"
)

func TestParseMoneyExactCents(t *testing.T) {
	cases := []struct {
		in    string
		minor int64
	}{
		{"149.99", 14999},
		{"299.00", 29900},
		{"0.1", 10},
		{"0.105", 11},
		{"120", 12000},
		{"-3.50", -350},
		{".99", 99},
	}
	for _, tc := range cases {
		m, err := ParseMoney(tc.in, "USD")
		if err != nil {
			t.Fatalf("ParseMoney(%q) returned error: %v", tc.in, err)
		}
		if m.Minor != tc.minor {
			t.Fatalf("ParseMoney(%q) = %d minor, want %d", tc.in, m.Minor, tc.minor)
		}
	}
}

func TestParseMoneyRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2e3", "12.x"} {
		if _, err := ParseMoney(in, "USD"); err == nil {
			t.Fatalf("ParseMoney(%q) succeeded, want error", in)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte("149.99"), &m); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if m.Minor != 14999 {
		t.Fatalf("expected 14999 minor units, got %d", m.Minor)
	}
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(out) != "149.99" {
		t.Fatalf("expected 149.99 on the wire, got %s", out)
	}
}

func TestSumLineTotalsIsExact(t *testing.T) {
	items := []CartItem{
		{ProductID: "1", Price: NewMoney(14999, "USD"), Quantity: 2},
		{ProductID: "2", Price: NewMoney(29900, "USD"), Quantity: 1},
	}
	total := SumLineTotals(items)
	if total.Minor != 59898 {
		t.Fatalf("expected 59898 minor units, got %d", total.Minor)
	}
	if total.String() != "598.98" {
		t.Fatalf("expected 598.98, got %s", total.String())
	}
}

func TestMoneyFromMajorRounds(t *testing.T) {
	if m := MoneyFromMajor(149.99, "USD"); m.Minor != 14999 {
		t.Fatalf("expected 14999, got %d", m.Minor)
	}
	if m := MoneyFromMajor(-0.005, "USD"); m.Minor != -1 {
		t.Fatalf("expected -1, got %d", m.Minor)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	if !OrderStatusPending.CanTransitionTo(OrderStatusProcessing) {
		t.Fatal("pending should progress to processing")
	}
	if !OrderStatusProcessing.CanTransitionTo(OrderStatusCancelled) {
		t.Fatal("processing should allow cancellation")
	}
	if OrderStatusShipped.CanTransitionTo(OrderStatusCancelled) {
		t.Fatal("shipped must not be cancellable")
	}
	if OrderStatusDelivered.CanTransitionTo(OrderStatusShipped) {
		t.Fatal("status progression must be forward only")
	}
	if !OrderStatusDelivered.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("delivered and cancelled are terminal")
	}
}

func TestSumLineTotalsExcludesMismatchedCurrencies(t *testing.T) {
	items := []CartItem{
		{ProductID: "a", Price: Money{Minor: 14999, Currency: "USD"}, Quantity: 2},
		{ProductID: "b", Price: Money{Minor: 10000, Currency: "EUR"}, Quantity: 1},
		{ProductID: "c", Price: Money{Minor: 29900, Currency: "USD"}, Quantity: 1},
	}

	total := SumLineTotals(items)
	if total.Currency != "USD" {
		t.Fatalf("expected the first item's currency, got %s", total.Currency)
	}
	if total.Minor != 59898 {
		t.Fatalf("mismatched currency must not enter the sum, got %d", total.Minor)
	}
}
