package dataset

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// FormatValue renders a value as flat text for its column. NULL renders as
// the empty string.
func FormatValue(col Column, v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case decimal.Decimal:
		return val.StringFixed(2)
	case time.Time:
		if col.Kind == KindTimestamp {
			return val.Format(TimestampLayout)
		}
		return val.Format(DateLayout)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatRow renders every value of row i.
func FormatRow(t Tabular, i int, dst []string) []string {
	cols := t.Schema().Columns
	values := t.Values(i)
	dst = dst[:0]
	for j, v := range values {
		dst = append(dst, FormatValue(cols[j], v))
	}
	return dst
}
