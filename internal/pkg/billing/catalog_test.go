package billing

import "testing"

func TestPlanFromSubscriptionName(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "Basic Plan", want: "basic", wantOK: true},
		{in: "Pro Plan", want: "pro", wantOK: true},
		{in: "Business Plan", want: "business", wantOK: true},
		{in: "pro", want: "pro", wantOK: true},
		{in: "  PRO PLAN  ", want: "pro", wantOK: true},
		{in: "Enterprise Plan", want: "enterprise", wantOK: false},
		{in: "", want: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := PlanFromSubscriptionName(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("PlanFromSubscriptionName(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSubscriptionName(t *testing.T) {
	if got := SubscriptionName("pro"); got != "Pro Plan" {
		t.Fatalf("SubscriptionName(pro) = %q, want %q", got, "Pro Plan")
	}
	if got := SubscriptionName("unknown"); got != "unknown" {
		t.Fatalf("SubscriptionName(unknown) = %q, want it passed through", got)
	}
}

func TestValidateSelection(t *testing.T) {
	if err := ValidateSelection("basic", 10); err != nil {
		t.Fatalf("expected basic/10 to validate, got %v", err)
	}
	if err := ValidateSelection("pro", 20); err != nil {
		t.Fatalf("expected pro/20 to validate, got %v", err)
	}
	if err := ValidateSelection("business", 30); err != nil {
		t.Fatalf("expected business/30 to validate, got %v", err)
	}

	// A client-submitted price must match the catalog exactly.
	if err := ValidateSelection("pro", 1); err != ErrInvalidPlan {
		t.Fatalf("expected tampered price to be rejected, got %v", err)
	}
	if err := ValidateSelection("enterprise", 99); err != ErrInvalidPlan {
		t.Fatalf("expected unknown plan to be rejected, got %v", err)
	}
}

func TestPriceOf(t *testing.T) {
	tests := []struct {
		plan  string
		price float64
		ok    bool
	}{
		{plan: "basic", price: 10, ok: true},
		{plan: "pro", price: 20, ok: true},
		{plan: "business", price: 30, ok: true},
		{plan: "enterprise", price: 0, ok: false},
	}

	for _, tt := range tests {
		got, ok := PriceOf(tt.plan)
		if got != tt.price || ok != tt.ok {
			t.Fatalf("PriceOf(%q) = (%v, %v), want (%v, %v)", tt.plan, got, ok, tt.price, tt.ok)
		}
	}
}
