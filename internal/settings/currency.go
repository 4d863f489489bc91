package settings

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type Currency string

const (
	USD Currency = "USD"
	IDR Currency = "IDR"
	EUR Currency = "EUR"
	SGD Currency = "SGD"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
)

var symbols = map[Currency]string{
	USD: "$",
	IDR: "Rp",
	EUR: "€",
	SGD: "S$",
	GBP: "£",
	JPY: "¥",
	AUD: "A$",
	CAD: "C$",
}

// Currencies lists the supported codes in display order.
func Currencies() []Currency {
	return []Currency{USD, IDR, EUR, SGD, GBP, JPY, AUD, CAD}
}

func (c Currency) Valid() bool {
	_, ok := symbols[c]
	return ok
}

func (c Currency) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return string(c)
}

// FractionDigits is 0 for currencies without minor units in everyday use.
func (c Currency) FractionDigits() int {
	if c == IDR || c == JPY {
		return 0
	}
	return 2
}

func (l Language) tag() language.Tag {
	if l == Indonesian {
		return language.Indonesian
	}
	return language.AmericanEnglish
}

// FormatAmount rounds to whole units, then groups digits the way the language
// does. Negative amounts put the sign before the symbol.
func FormatAmount(amount float64, c Currency, l Language, showSymbol bool) string {
	rounded := decimal.NewFromFloat(amount).Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	digits := c.FractionDigits()
	p := message.NewPrinter(l.tag())
	formatted := p.Sprint(number.Decimal(rounded.InexactFloat64(),
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))

	if !showSymbol {
		return sign + formatted
	}
	return sign + c.Symbol() + formatted
}
