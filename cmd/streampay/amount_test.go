package main

import (
	"testing"

	"streampay/internal/config"
)

func newTestFormatter(symbol string, decimals int) amountFormatter {
	cfg := config.Default()
	cfg.Network.UnitSymbol = symbol
	cfg.Network.UnitDecimals = decimals
	return newAmountFormatter(&cfg)
}

func TestAmountParse(t *testing.T) {
	f := newTestFormatter("mon", 9)

	cases := []struct {
		input string
		want  uint64
	}{
		{"0", 0},
		{"1", 1_000_000_000},
		{"1.5", 1_500_000_000},
		{"0.000000001", 1},
		{".25", 250_000_000},
		{" 42 ", 42_000_000_000},
	}
	for _, tc := range cases {
		got, err := f.parse(tc.input)
		if err != nil {
			t.Fatalf("parse(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("parse(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestAmountParseRejectsBadInput(t *testing.T) {
	f := newTestFormatter("mon", 9)

	for _, input := range []string{
		"",
		"-1",
		"1.0000000001",
		"abc",
		"1.2.3",
		"99999999999999999999",
	} {
		if _, err := f.parse(input); err == nil {
			t.Fatalf("parse(%q) succeeded, want error", input)
		}
	}
}

func TestAmountParseZeroDecimals(t *testing.T) {
	f := newTestFormatter("units", 0)

	got, err := f.parse("250")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != 250 {
		t.Fatalf("parse(250) = %d", got)
	}
	if _, err := f.parse("1.5"); err == nil {
		t.Fatal("expected error for fractional amount with zero decimals")
	}
}

func TestAmountFormat(t *testing.T) {
	f := newTestFormatter("mon", 9)

	cases := []struct {
		base uint64
		want string
	}{
		{0, "0.000000000"},
		{1, "0.000000001"},
		{1_500_000_000, "1.500000000"},
		{1_234_000_000_000, "1,234.000000000"},
	}
	for _, tc := range cases {
		if got := f.format(tc.base); got != tc.want {
			t.Fatalf("format(%d) = %q, want %q", tc.base, got, tc.want)
		}
	}

	if got := f.formatWithSymbol(1_500_000_000); got != "1.500000000 mon" {
		t.Fatalf("formatWithSymbol = %q", got)
	}
	if got := f.formatRate(2_000_000_000); got != "2.000000000 mon/s" {
		t.Fatalf("formatRate = %q", got)
	}
}

func TestAmountFormatZeroDecimals(t *testing.T) {
	f := newTestFormatter("units", 0)

	if got := f.format(1_234_567); got != "1,234,567" {
		t.Fatalf("format = %q", got)
	}
}

func TestShortenAddress(t *testing.T) {
	long := "0x00000000000000000000000000000000000000aa"
	if got := shortenAddress(long); got != "0x000000..00aa" {
		t.Fatalf("shortenAddress = %q", got)
	}
	if got := shortenAddress("0xabc"); got != "0xabc" {
		t.Fatalf("short address changed: %q", got)
	}
}

func TestAmountRoundTrip(t *testing.T) {
	f := newTestFormatter("mon", 6)

	for _, base := range []uint64{0, 1, 999_999, 1_000_000, 123_456_789} {
		parsed, err := f.parse(f.format(base))
		if err != nil {
			t.Fatalf("parse(format(%d)): %v", base, err)
		}
		if parsed != base {
			t.Fatalf("round trip %d -> %d", base, parsed)
		}
	}
}
