package sorting

import (
	"sort"

	"ordermonitor/src/model"
)

// Kind tells the extractor how to interpret a column's raw value.
type Kind int

const (
	// KindAuto sorts numerically when the value parses as a number, else as text.
	KindAuto Kind = iota
	KindText
	KindNumber
	KindDate
)

// Column describes one sortable attribute of an open order.
type Column struct {
	ID       string
	Kind     Kind
	Sortable bool
	value    func(model.OpenOrder) model.Value
}

var columns = map[string]Column{
	"id": {ID: "id", Kind: KindAuto, Sortable: true, value: func(o model.OpenOrder) model.Value {
		if o.ID.IsZero() {
			return model.NullValue()
		}
		return model.StringValue(o.ID.String())
	}},
	"status": {ID: "status", Kind: KindText, Sortable: true, value: func(o model.OpenOrder) model.Value {
		if o.Status == "" {
			return model.NullValue()
		}
		return model.StringValue(string(o.Status))
	}},
	"order_type": {ID: "order_type", Kind: KindText, Sortable: true, value: func(o model.OpenOrder) model.Value {
		if o.OrderType == "" {
			return model.NullValue()
		}
		return model.StringValue(o.OrderType)
	}},
	"exchange":                {ID: "exchange", Kind: KindText, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.Exchange }},
	"pair":                    {ID: "pair", Kind: KindText, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.Pair }},
	"side":                    {ID: "side", Kind: KindText, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.Side }},
	"target_qty":              {ID: "target_qty", Kind: KindNumber, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.TargetQty }},
	"pct_filled":              {ID: "pct_filled", Kind: KindNumber, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.PctFilled }},
	"time_start":              {ID: "time_start", Kind: KindDate, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.TimeStart }},
	"resume_condition_normal": {ID: "resume_condition_normal", Kind: KindText, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.ResumeConditionNormal }},
	"order_condition_normal":  {ID: "order_condition_normal", Kind: KindText, Sortable: true, value: func(o model.OpenOrder) model.Value { return o.OrderConditionNormal }},
	// Row actions render in this column; it has no value to sort by.
	"actions": {ID: "actions", Kind: KindText, Sortable: false, value: func(model.OpenOrder) model.Value { return model.NullValue() }},
}

// IsSortable reports whether column is registered and accepts sorting.
func IsSortable(column string) bool {
	c, ok := columns[column]
	return ok && c.Sortable
}

// Columns lists the registered columns ordered by id.
func Columns() []Column {
	out := make([]Column, 0, len(columns))
	for _, c := range columns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
