package sorting

import (
	"strings"

	"ordermonitor/src/model"

	"github.com/shopspring/decimal"
)

// Key is the typed sort value extracted from one cell.
type Key struct {
	null  bool
	isNum bool
	num   decimal.Decimal
	text  string
}

// IsNull reports whether the cell had no usable value.
func (k Key) IsNull() bool { return k.null }

func (k Key) String() string {
	if k.isNum {
		return k.num.String()
	}
	return k.text
}

func nullKey() Key                    { return Key{null: true} }
func numberKey(d decimal.Decimal) Key { return Key{isNum: true, num: d} }
func textKey(s string) Key            { return Key{text: strings.ToLower(s)} }

// Extract maps (order, column) to a sort key. Unregistered columns yield a null key.
func Extract(o model.OpenOrder, column string) Key {
	c, ok := columns[column]
	if !ok {
		return nullKey()
	}
	return keyFor(c.Kind, c.value(o))
}

func keyFor(kind Kind, v model.Value) Key {
	if !v.Valid() {
		return nullKey()
	}
	raw := v.String()

	switch kind {
	case KindNumber:
		d, ok := NormalizeNumber(raw)
		if !ok {
			return nullKey()
		}
		return numberKey(d)
	case KindDate:
		ms, ok := ParseEpochMillis(raw)
		if !ok {
			return nullKey()
		}
		return numberKey(decimal.NewFromInt(ms))
	case KindText:
		return textKey(raw)
	default:
		if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
			return numberKey(d)
		}
		return textKey(raw)
	}
}

// NormalizeNumber strips everything except digits, '.' and '-' and parses
// the remainder. "1,250.5 USDT" -> 1250.5, "12%" -> 12.
func NormalizeNumber(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseEpochMillis parses a timestamp into epoch milliseconds.
func ParseEpochMillis(raw string) (int64, bool) {
	t, ok := model.ParseTimestamp(raw)
	if !ok {
		return 0, false
	}
	return t.UnixMilli(), true
}
