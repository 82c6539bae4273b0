package sqlite

import (
	"time"

	"github.com/shopspring/decimal"
	rules "github.com/jhoicas/inventrack/internal/domain/inventory"
)

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(rules.Scale).IntPart()
}

func fromCents(n int64) decimal.Decimal {
	return decimal.New(n, -rules.Scale)
}

var timeNow = time.Now
