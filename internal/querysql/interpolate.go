package querysql

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interpolate substitutes params into the ? placeholders of sql, producing
// display text. The result is for humans reading failure output; it must
// never be executed.
//
// Placeholders inside single-quoted literals or double-quoted identifiers
// are left untouched. Surplus placeholders stay as "?".
func Interpolate(sql string, params []any) string {
	var buf strings.Builder
	buf.Grow(len(sql))

	next := 0
	var quote rune
	for _, r := range sql {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			buf.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			buf.WriteRune(r)
		case r == '?' && next < len(params):
			buf.WriteString(Literal(params[next]))
			next++
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// Literal renders a single parameter value as a SQLite literal.
func Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quoteString(val)
	case []byte:
		return "x'" + hex.EncodeToString(val) + "'"
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return quoteString(val.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return quoteString(val.String())
	default:
		return quoteString(fmt.Sprint(val))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
