package payroll

import (
	"math"

	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/session"
)

// LineItem is a session priced against the cost model effective at its start.
type LineItem struct {
	Session         session.Session
	CostModel       *costmodel.CostModel // nil: no model applied
	DurationMinutes int
	CostAmount      float64
	Currency        string
}

// PriceSession prices a completed session.
// hourly: minutes/60 * rate; per_session: rate; monthly: 0 (billed once on the aggregate).
// Without a model the cost is 0 in the default currency.
func PriceSession(s session.Session, m *costmodel.CostModel, defaultCurrency string) LineItem {
	it := LineItem{
		Session:         s,
		CostModel:       m,
		DurationMinutes: s.DurationMinutes(),
		Currency:        defaultCurrency,
	}
	if m == nil {
		return it
	}

	it.Currency = m.Currency
	switch m.Type {
	case costmodel.TypeHourly:
		it.CostAmount = roundMoney(float64(it.DurationMinutes) / 60 * m.Amount)
	case costmodel.TypePerSession:
		it.CostAmount = roundMoney(m.Amount)
	case costmodel.TypeMonthly:
		it.CostAmount = 0
	}
	return it
}

// totals applies the aggregate rules: a monthly model replaces the per-session sum.
func totals(items []LineItem, monthly *costmodel.CostModel, defaultCurrency string) (total float64, currency string) {
	if monthly != nil {
		return roundMoney(monthly.Amount), monthly.Currency
	}
	for _, it := range items {
		total += it.CostAmount
	}
	currency = defaultCurrency
	for _, it := range items {
		// first session priced against a model; unpriced ones only carry the default
		if it.CostModel != nil {
			currency = it.Currency
			break
		}
	}
	return roundMoney(total), currency
}

// roundMoney rounds to cents.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
