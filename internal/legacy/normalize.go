// Package legacy turns every historical persisted shape of the slot
// collections into the canonical slots model, and writes the canonical shape
// back out.
//
// Accepted open-slot shapes, per date key:
//
//	["18:00", "19:00"]                      plain times
//	[{"time": "18:00", "name": "Ana"}]      structured entries
//
// An auxiliary name map may be nested ({"2025-08-17": {"18:00": "Ana"}}) or
// flat ({"2025-08-17T18:00": "Ana"}); it only fills names that are absent.
package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/slots"
)

const (
	CollectionSlots  = "slots"
	CollectionDone   = "done"
	CollectionMarked = "markedDays"
	CollectionNames  = "names"
)

var flatNameKey = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`)

// Documents holds the raw JSON of each persisted collection. Any of them may
// be empty.
type Documents struct {
	Slots  json.RawMessage `json:"slots,omitempty"`
	Done   json.RawMessage `json:"done,omitempty"`
	Marked json.RawMessage `json:"markedDays,omitempty"`
	Names  json.RawMessage `json:"names,omitempty"`
}

// Normalize builds a canonical store from docs. Records that fail
// validation are dropped and reported; they never abort the load. now
// stamps done records that lack a doneAt.
func Normalize(docs Documents, now time.Time) (*slots.Store, []*MalformedRecordError) {
	var dropped []*MalformedRecordError

	open, errs := DecodeSlots(docs.Slots)
	dropped = append(dropped, errs...)
	dropped = append(dropped, MergeNames(open, docs.Names)...)

	done, errs := DecodeDone(docs.Done, now)
	dropped = append(dropped, errs...)

	marked, errs := DecodeMarked(docs.Marked)
	dropped = append(dropped, errs...)

	return slots.FromSnapshot(slots.Snapshot{Open: open, Done: done, Marked: marked}), dropped
}

// DecodeSlots reads the open-slot collection. Buckets come back deduplicated
// and sorted only once they pass through slots.FromSnapshot.
func DecodeSlots(raw json.RawMessage) (map[calendar.Date][]slots.Entry, []*MalformedRecordError) {
	out := make(map[calendar.Date][]slots.Entry)
	if isEmpty(raw) {
		return out, nil
	}

	var byDate map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byDate); err != nil {
		return out, []*MalformedRecordError{malformed(CollectionSlots, "", "not an object: %v", err)}
	}

	var dropped []*MalformedRecordError
	for key, value := range byDate {
		d, err := calendar.ParseDate(key)
		if err != nil {
			dropped = append(dropped, malformed(CollectionSlots, key, "invalid date"))
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			dropped = append(dropped, malformed(CollectionSlots, key, "bucket is not an array"))
			continue
		}
		for i, item := range items {
			entry, err := decodeEntry(item)
			if err != nil {
				dropped = append(dropped, malformed(CollectionSlots, fmt.Sprintf("%s[%d]", key, i), "%v", err))
				continue
			}
			out[d] = append(out[d], entry)
		}
	}
	return out, dropped
}

type rawEntry struct {
	Time    *json.RawMessage `json:"time"`
	Name    json.RawMessage  `json:"name"`
	Service json.RawMessage  `json:"service"`
}

func decodeEntry(item json.RawMessage) (slots.Entry, error) {
	var plain string
	if err := json.Unmarshal(item, &plain); err == nil {
		t, err := calendar.ParseTimeOfDay(plain)
		if err != nil {
			return slots.Entry{}, err
		}
		return slots.Entry{Time: t}, nil
	}

	var obj rawEntry
	if err := json.Unmarshal(item, &obj); err != nil {
		return slots.Entry{}, fmt.Errorf("entry is neither a time nor an object")
	}
	if obj.Time == nil {
		return slots.Entry{}, fmt.Errorf("entry has no time")
	}
	var rawTime string
	if err := json.Unmarshal(*obj.Time, &rawTime); err != nil {
		return slots.Entry{}, fmt.Errorf("time is not a string")
	}
	t, err := calendar.ParseTimeOfDay(rawTime)
	if err != nil {
		return slots.Entry{}, err
	}
	return slots.Entry{Time: t, Name: optionalString(obj.Name), Service: optionalString(obj.Service)}, nil
}

// MergeNames fills absent names in open from the auxiliary name map. Names
// already present are never overwritten, and dates or times without an open
// entry are ignored.
func MergeNames(open map[calendar.Date][]slots.Entry, raw json.RawMessage) []*MalformedRecordError {
	if isEmpty(raw) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return []*MalformedRecordError{malformed(CollectionNames, "", "not an object: %v", err)}
	}

	var dropped []*MalformedRecordError
	fill := func(d calendar.Date, t calendar.TimeOfDay, name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		bucket := open[d]
		for i := range bucket {
			if bucket[i].Time == t {
				bucket[i] = slots.MergePreferExisting(bucket[i], slots.Entry{Time: t, Name: name})
			}
		}
	}

	for key, value := range obj {
		var perTime map[string]json.RawMessage
		if err := json.Unmarshal(value, &perTime); err == nil && perTime != nil {
			d, err := calendar.ParseDate(key)
			if err != nil {
				dropped = append(dropped, malformed(CollectionNames, key, "invalid date"))
				continue
			}
			for rawTime, rawName := range perTime {
				t, err := calendar.ParseTimeOfDay(rawTime)
				if err != nil {
					dropped = append(dropped, malformed(CollectionNames, key+"T"+rawTime, "%v", err))
					continue
				}
				fill(d, t, optionalString(rawName))
			}
			continue
		}

		var name string
		if err := json.Unmarshal(value, &name); err != nil || !flatNameKey.MatchString(key) {
			dropped = append(dropped, malformed(CollectionNames, key, "unrecognised name entry"))
			continue
		}
		datePart, timePart, _ := strings.Cut(key, "T")
		d, err := calendar.ParseDate(datePart)
		if err != nil {
			dropped = append(dropped, malformed(CollectionNames, key, "invalid date"))
			continue
		}
		t, err := calendar.ParseTimeOfDay(timePart)
		if err != nil {
			dropped = append(dropped, malformed(CollectionNames, key, "%v", err))
			continue
		}
		fill(d, t, name)
	}
	return dropped
}

type rawDone struct {
	Date    string          `json:"date"`
	Time    string          `json:"time"`
	Name    json.RawMessage `json:"name"`
	Service json.RawMessage `json:"service"`
	DoneAt  string          `json:"doneAt"`
}

// DecodeDone reads the completed collection. Records without a usable date
// or time are dropped; a missing or unreadable doneAt becomes now.
func DecodeDone(raw json.RawMessage, now time.Time) ([]slots.DoneRecord, []*MalformedRecordError) {
	if isEmpty(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, []*MalformedRecordError{malformed(CollectionDone, "", "not an array: %v", err)}
	}

	var (
		out     []slots.DoneRecord
		dropped []*MalformedRecordError
	)
	for i, item := range items {
		key := fmt.Sprintf("[%d]", i)
		var rec rawDone
		if err := json.Unmarshal(item, &rec); err != nil {
			dropped = append(dropped, malformed(CollectionDone, key, "not an object"))
			continue
		}
		d, err := calendar.ParseDate(rec.Date)
		if err != nil {
			dropped = append(dropped, malformed(CollectionDone, key, "invalid date %q", rec.Date))
			continue
		}
		t, err := calendar.ParseTimeOfDay(rec.Time)
		if err != nil {
			dropped = append(dropped, malformed(CollectionDone, key, "%v", err))
			continue
		}
		doneAt, err := time.Parse(time.RFC3339Nano, rec.DoneAt)
		if err != nil {
			doneAt = now
		}
		out = append(out, slots.DoneRecord{
			Date:    d,
			Time:    t,
			Name:    optionalString(rec.Name),
			Service: optionalString(rec.Service),
			DoneAt:  doneAt.UTC(),
		})
	}
	return out, dropped
}

// DecodeMarked reads the marked-days collection.
func DecodeMarked(raw json.RawMessage) ([]calendar.Date, []*MalformedRecordError) {
	if isEmpty(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, []*MalformedRecordError{malformed(CollectionMarked, "", "not an array: %v", err)}
	}
	var (
		out     []calendar.Date
		dropped []*MalformedRecordError
	)
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			dropped = append(dropped, malformed(CollectionMarked, fmt.Sprintf("[%d]", i), "not a string"))
			continue
		}
		d, err := calendar.ParseDate(s)
		if err != nil {
			dropped = append(dropped, malformed(CollectionMarked, s, "invalid date"))
			continue
		}
		out = append(out, d)
	}
	return out, dropped
}

// optionalString accepts a JSON string, number or bool and returns its text.
// Anything else, including null, is treated as absent.
func optionalString(raw json.RawMessage) string {
	if isEmpty(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprint(b)
	}
	return ""
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
