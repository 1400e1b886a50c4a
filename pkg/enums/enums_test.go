package enums

import "testing"

func TestParseCurrencyNormalizes(t *testing.T) {
	c, err := ParseCurrency(" eur ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != CurrencyEUR {
		t.Fatalf("expected EUR, got %s", c)
	}
	for _, bad := range []string{"", "US", "USDT", "U5D"} {
		if _, err := ParseCurrency(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestNormalizeFinancialStatus(t *testing.T) {
	if got := NormalizeFinancialStatus("paid"); got != FinancialStatusPaid {
		t.Fatalf("expected paid, got %s", got)
	}
	if got := NormalizeFinancialStatus("something_new"); got != FinancialStatusUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if _, err := ParseFinancialStatus("something_new"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseAdPlatform(t *testing.T) {
	p, err := ParseAdPlatform("google_ads")
	if err != nil || p != AdPlatformGoogleAds {
		t.Fatalf("unexpected result %q err=%v", p, err)
	}
	if AdPlatform("meta").IsValid() {
		t.Fatal("meta is not a supported platform")
	}
}
