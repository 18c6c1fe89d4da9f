package mailer_test

import (
	"testing"

	"github.com/Abraxas-365/caremail/pkg/mailer"
)

func options() []mailer.PricingOption {
	return []mailer.PricingOption{
		{Installment: 1, Price: 1000},
		{Installment: 3, Price: 1100, IsGlobalDefault: true},
		{Installment: 6, Price: 1200},
		{Installment: 12, Price: 1200, IsPriceDefault: true},
	}
}

func TestResolvePricingOption_EmptyOptions(t *testing.T) {
	_, err := mailer.ResolvePricingOption(nil, mailer.PriceHint{})
	if err == nil {
		t.Fatal("expected error for empty option list")
	}
}

func TestResolvePricingOption_NoHintUsesGlobalDefault(t *testing.T) {
	res, err := mailer.ResolvePricingOption(options(), mailer.PriceHint{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.Installment != 3 {
		t.Fatalf("expected global default (installment 3), got %+v", res.Selected)
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning: %q", res.Warning)
	}
}

func TestResolvePricingOption_NoHintNoDefaultUsesFirst(t *testing.T) {
	opts := []mailer.PricingOption{
		{Installment: 2, Price: 500},
		{Installment: 4, Price: 600},
	}
	res, err := mailer.ResolvePricingOption(opts, mailer.PriceHint{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.Installment != 2 {
		t.Fatalf("expected first stored option, got %+v", res.Selected)
	}
}

func TestResolvePricingOption_SingleMatch(t *testing.T) {
	res, err := mailer.ResolvePricingOption(options(), mailer.PriceHint{Price: 1000, Valid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.Installment != 1 {
		t.Fatalf("expected the single 1000-priced option, got %+v", res.Selected)
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning: %q", res.Warning)
	}
}

func TestResolvePricingOption_MultipleMatchesPriceDefaultWins(t *testing.T) {
	res, err := mailer.ResolvePricingOption(options(), mailer.PriceHint{Price: 1200, Valid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.Installment != 12 {
		t.Fatalf("expected price default (installment 12), got %+v", res.Selected)
	}
}

func TestResolvePricingOption_MultipleMatchesNoPriceDefaultFirstWins(t *testing.T) {
	opts := []mailer.PricingOption{
		{Installment: 6, Price: 1200},
		{Installment: 12, Price: 1200},
	}
	res, err := mailer.ResolvePricingOption(opts, mailer.PriceHint{Price: 1200, Valid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.Installment != 6 {
		t.Fatalf("expected first match in stored order, got %+v", res.Selected)
	}
}

func TestResolvePricingOption_NoMatchFallsBackWithWarning(t *testing.T) {
	res, err := mailer.ResolvePricingOption(options(), mailer.PriceHint{Price: 999, Valid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected.Installment != 3 {
		t.Fatalf("expected fallback to global default, got %+v", res.Selected)
	}
	if res.Warning != mailer.WarningNoOptionAtPrice {
		t.Fatalf("expected fallback warning, got %q", res.Warning)
	}
}

func TestMatchPricingOption(t *testing.T) {
	opt := mailer.MatchPricingOption(options(), 6, 1200)
	if opt == nil || opt.Installment != 6 {
		t.Fatalf("expected installment 6 option, got %+v", opt)
	}

	if opt := mailer.MatchPricingOption(options(), 6, 1100); opt != nil {
		t.Fatalf("expected nil for mismatched pair, got %+v", opt)
	}
}
