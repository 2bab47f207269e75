package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Output locale is fixed so artifacts stay comparable across backends:
// USD currency with comma grouping, "Jan 2, 2006" dates.
const dateLayout = "Jan 2, 2006"

// valueKind classifies how a column or summary value is formatted.
type valueKind int

const (
	kindText valueKind = iota
	kindNumber
	kindCurrency
	kindDate
	kindPercent
)

func formatValue(v any, kind valueKind) string {
	switch kind {
	case kindCurrency:
		if f, ok := toFloat(v); ok {
			return formatCurrency(f)
		}
	case kindDate:
		if s, ok := toDate(v); ok {
			return s
		}
	case kindPercent:
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'f', 1, 64) + "%"
		}
	case kindNumber:
		if f, ok := toFloat(v); ok {
			return formatNumber(f)
		}
	}
	return formatText(v)
}

func formatCurrency(f float64) string {
	neg := f < 0
	if neg {
		f = -f
	}
	s := "$" + groupThousands(strconv.FormatFloat(f, 'f', 2, 64))
	if neg {
		return "-" + s
	}
	return s
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return groupThousands(strconv.FormatInt(int64(f), 10))
	}
	return groupThousands(strconv.FormatFloat(f, 'f', 2, 64))
}

// groupThousands inserts commas into the integer part of a decimal string.
func groupThousands(s string) string {
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	if len(intPart) <= 3 {
		return intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + frac
}

func formatText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toDate accepts the timestamp shapes the domain services emit.
func toDate(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), true
		}
	}

	return "", false
}

// titleize converts a camelCase or snake_case key into a display header.
func titleize(key string) string {
	if key == "" {
		return ""
	}

	var words []string
	var current strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		case i > 0 && r >= 'A' && r <= 'Z':
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
