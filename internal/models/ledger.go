package models

import (
	"encoding/json"
	"sort"
)

// FeeEntry is one month's obligation. Paid > 0 means the month is settled.
type FeeEntry struct {
	Value float64 `json:"value"`
	Paid  float64 `json:"paid"`
}

// Ledger maps year ("2024") to month to entry. It is sparse and append-only:
// entries are added or mutated in place, never dropped by an update.
//
// Month keys are kept as the backend sent them. Clients disagree on September
// ("sep" and "sept" both occur, sometimes in one year), so a stored key is never
// renamed and two spellings of one month stay two entries.
type Ledger map[string]map[Month]FeeEntry

// Key resolves the stored key for m in year: m itself when present, then the
// canonical spelling, then any other spelling of the same month in sorted order.
func (l Ledger) Key(year string, m Month) (Month, bool) {
	months, ok := l[year]
	if !ok {
		return "", false
	}
	if _, ok := months[m]; ok {
		return m, true
	}
	c, err := ParseMonth(string(m))
	if err != nil {
		return "", false
	}
	if _, ok := months[c]; ok {
		return c, true
	}
	var aliases []string
	for k := range months {
		if alt, err := ParseMonth(string(k)); err == nil && alt == c {
			aliases = append(aliases, string(k))
		}
	}
	if len(aliases) == 0 {
		return "", false
	}
	sort.Strings(aliases)
	return Month(aliases[0]), true
}

func (l Ledger) Entry(year string, m Month) (FeeEntry, bool) {
	k, ok := l.Key(year, m)
	if !ok {
		return FeeEntry{}, false
	}
	return l[year][k], true
}

// Set writes one entry under the month's stored key (m for a new month) and
// leaves every other year and month untouched.
func (l *Ledger) Set(year string, m Month, e FeeEntry) {
	if *l == nil {
		*l = Ledger{}
	}
	months, ok := (*l)[year]
	if !ok {
		months = map[Month]FeeEntry{}
		(*l)[year] = months
	}
	if k, ok := l.Key(year, m); ok {
		m = k
	}
	months[m] = e
}

// SetPaid toggles paid on an existing entry, keeping its value, or seeds a new
// entry with value when the month has none yet.
func (l *Ledger) SetPaid(year string, m Month, paid bool, value float64) {
	e, ok := l.Entry(year, m)
	if !ok {
		e.Value = value
	}
	e.Paid = 0
	if paid {
		e.Paid = 1
	}
	l.Set(year, m, e)
}

// Years returns the ledger's year keys, newest first.
func (l Ledger) Years() []string {
	out := make([]string, 0, len(l))
	for y := range l {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	for y, months := range l {
		cp := make(map[Month]FeeEntry, len(months))
		for m, e := range months {
			cp[m] = e
		}
		out[y] = cp
	}
	return out
}

type wireYear struct {
	Months map[string]FeeEntry `json:"months"`
}

// MarshalJSON writes the backend form {"2024":{"months":{"jan":{...}}}}.
func (l Ledger) MarshalJSON() ([]byte, error) {
	out := make(map[string]wireYear, len(l))
	for y, months := range l {
		wy := wireYear{Months: make(map[string]FeeEntry, len(months))}
		for m, e := range months {
			wy.Months[string(m)] = e
		}
		out[y] = wy
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads both {"2024":{"months":{...}}} and {"2024":{"jan":{...}}}.
// Keys that name a month are kept verbatim; anything else is dropped.
func (l *Ledger) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Ledger, len(raw))
	for y, body := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return err
		}
		if inner, ok := fields["months"]; ok {
			fields = nil
			if err := json.Unmarshal(inner, &fields); err != nil {
				return err
			}
		}
		months := make(map[Month]FeeEntry, len(fields))
		for k, v := range fields {
			if _, err := ParseMonth(k); err != nil {
				continue
			}
			var e FeeEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			months[Month(k)] = e
		}
		out[y] = months
	}
	*l = out
	return nil
}
