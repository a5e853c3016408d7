package service

import "github.com/shopspring/decimal"

var (
	maxPrice = decimal.RequireFromString("99999999.99")
	hundred  = decimal.NewFromInt(100)
)

// roundMoney rounds half away from zero to two decimal places.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// checkPrice validates a price and returns it rounded.
func checkPrice(name string, p decimal.Decimal) (decimal.Decimal, error) {
	if !p.IsPositive() {
		return decimal.Zero, invalid("%s must be a positive number, got %s", name, p.String())
	}
	p = roundMoney(p)
	if p.IsZero() {
		return decimal.Zero, invalid("%s must be at least 0.01, got %s", name, p.String())
	}
	if p.GreaterThan(maxPrice) {
		return decimal.Zero, invalid("%s must not exceed %s", name, maxPrice.StringFixed(2))
	}
	return p, nil
}

// average returns total/n rounded, or zero when n is zero.
func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return roundMoney(total.Div(decimal.NewFromInt(int64(n))))
}

// percent returns part/whole*100 rounded, or zero when whole is zero.
func percent(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return roundMoney(decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))))
}
