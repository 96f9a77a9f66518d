package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"streampay/internal/config"
)

// amountFormatter converts between human decimal amounts and the ledger's
// integer base units, per the configured network.unit_decimals.
type amountFormatter struct {
	symbol   string
	decimals int
	printer  *message.Printer
}

func newAmountFormatter(cfg *config.Config) amountFormatter {
	symbol := "units"
	decimals := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Network.UnitSymbol) != "" {
			symbol = cfg.Network.UnitSymbol
		}
		decimals = cfg.Network.UnitDecimals
	}
	return amountFormatter{
		symbol:   symbol,
		decimals: decimals,
		printer:  message.NewPrinter(language.English),
	}
}

func (f amountFormatter) scale() uint64 {
	scale := uint64(1)
	for i := 0; i < f.decimals; i++ {
		scale *= 10
	}
	return scale
}

// parse converts a decimal string like "1.5" into base units.
func (f amountFormatter) parse(value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(trimmed, "-") {
		return 0, fmt.Errorf("amount %q must not be negative", value)
	}

	wholePart, fracPart, hasFrac := strings.Cut(trimmed, ".")
	if wholePart == "" {
		wholePart = "0"
	}
	whole, err := strconv.ParseUint(wholePart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}

	frac := uint64(0)
	if hasFrac {
		if fracPart == "" || len(fracPart) > f.decimals {
			return 0, fmt.Errorf("amount %q has more than %d decimal places", value, f.decimals)
		}
		padded := fracPart + strings.Repeat("0", f.decimals-len(fracPart))
		frac, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", value)
		}
	}

	scale := f.scale()
	if whole > (math.MaxUint64-frac)/scale {
		return 0, fmt.Errorf("amount %q is too large", value)
	}
	return whole*scale + frac, nil
}

// format renders base units as a decimal string with grouped whole digits.
func (f amountFormatter) format(base uint64) string {
	scale := f.scale()
	whole := base / scale
	grouped := f.printer.Sprintf("%d", whole)
	if f.decimals == 0 {
		return grouped
	}
	frac := base % scale
	return fmt.Sprintf("%s.%0*d", grouped, f.decimals, frac)
}

// formatWithSymbol renders base units followed by the configured unit symbol.
func (f amountFormatter) formatWithSymbol(base uint64) string {
	return f.format(base) + " " + f.symbol
}

// formatRate renders a per-second flow rate in base units.
func (f amountFormatter) formatRate(base uint64) string {
	return f.formatWithSymbol(base) + "/s"
}
