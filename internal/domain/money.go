package domain

import "github.com/shopspring/decimal"

// Money is a decimal amount in a currency. Amounts marshal as JSON strings.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// MoneyFromCents converts a minor-unit amount stored by the repositories.
func MoneyFromCents(cents int64, currency string) Money {
	return Money{Amount: decimal.New(cents, -2), CurrencyCode: currency}
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, CurrencyCode: currency}
}

// Cents returns the amount in minor units, rounded half away from zero.
func (m Money) Cents() int64 {
	return m.Amount.Shift(2).Round(0).IntPart()
}

// Times multiplies the amount by a quantity.
func (m Money) Times(quantity int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(quantity))), CurrencyCode: m.CurrencyCode}
}

// Plus adds o, keeping the receiver's currency when it is set.
func (m Money) Plus(o Money) Money {
	currency := m.CurrencyCode
	if currency == "" {
		currency = o.CurrencyCode
	}
	return Money{Amount: m.Amount.Add(o.Amount), CurrencyCode: currency}
}

// Minus subtracts o.
func (m Money) Minus(o Money) Money {
	currency := m.CurrencyCode
	if currency == "" {
		currency = o.CurrencyCode
	}
	return Money{Amount: m.Amount.Sub(o.Amount), CurrencyCode: currency}
}

// NonNegative floors the amount at zero.
func (m Money) NonNegative() Money {
	if m.Amount.IsNegative() {
		return Money{Amount: decimal.Zero, CurrencyCode: m.CurrencyCode}
	}
	return m
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String renders the amount with two decimals and the currency code.
func (m Money) String() string {
	if m.CurrencyCode == "" {
		return m.Amount.StringFixed(2)
	}
	return m.Amount.StringFixed(2) + " " + m.CurrencyCode
}
