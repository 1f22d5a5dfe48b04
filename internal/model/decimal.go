package model

import "github.com/shopspring/decimal"

// Decimal converts an optional number into a nullable decimal.
func Decimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v), Valid: true}
}

// Total sums the three contributing lifts. The result is null unless all
// three are present.
func Total(squat, bench, deadlift decimal.NullDecimal) decimal.NullDecimal {
	if !squat.Valid || !bench.Valid || !deadlift.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{
		Decimal: squat.Decimal.Add(bench.Decimal).Add(deadlift.Decimal),
		Valid:   true,
	}
}
