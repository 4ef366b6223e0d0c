package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrDecode means a deck payload could not be decoded.
var ErrDecode = errors.New("decode deck")

// Document is a decoded ArkhamDB deck.
type Document struct {
	ID               string
	Name             string
	InvestigatorCode string
	Slots            map[string]int
	SideSlots        map[string]int
}

// Entry is one line of a flattened deck list.
type Entry struct {
	CardID   string
	Quantity int
}

// Parse decodes a deck payload. Only a missing or non-string investigator_code
// fails the parse; slots and sideSlots fall back to empty when malformed.
func Parse(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	raw, ok := fields["investigator_code"]
	if !ok {
		return nil, fmt.Errorf("%w: investigator_code is missing", ErrDecode)
	}
	var investigator string
	if err := json.Unmarshal(raw, &investigator); err != nil || investigator == "" {
		return nil, fmt.Errorf("%w: investigator_code must be a non-empty string", ErrDecode)
	}

	return &Document{
		ID:               optionalID(fields["id"]),
		Name:             optionalString(fields["name"]),
		InvestigatorCode: investigator,
		Slots:            quantities(fields["slots"]),
		SideSlots:        quantities(fields["sideSlots"]),
	}, nil
}

// quantities decodes a card id to quantity mapping, or returns an empty map.
func quantities(raw json.RawMessage) map[string]int {
	var m map[string]int
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil || m == nil {
		return map[string]int{}
	}
	return m
}

func optionalString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// optionalID accepts both numeric and string ids.
func optionalID(raw json.RawMessage) string {
	if s := optionalString(raw); s != "" {
		return s
	}
	var n json.Number
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return ""
	}
	return n.String()
}

// Entries flattens doc: the investigator with quantity 1, then slots, then
// sideSlots. Groups are not merged, so an id may appear more than once.
func Entries(doc *Document) []Entry {
	entries := []Entry{{CardID: doc.InvestigatorCode, Quantity: 1}}
	entries = append(entries, entriesOf(doc.Slots)...)
	entries = append(entries, entriesOf(doc.SideSlots)...)
	return entries
}

// entriesOf emits one entry per positive quantity, ordered by card id.
func entriesOf(slots map[string]int) []Entry {
	ids := make([]string, 0, len(slots))
	for id, qty := range slots {
		if id != "" && qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, Entry{CardID: id, Quantity: slots[id]})
	}
	return entries
}

// UniqueCardIDs returns the distinct card ids of entries in first-seen order.
func UniqueCardIDs(entries []Entry) []string {
	seen := make(map[string]bool, len(entries))
	var ids []string
	for _, e := range entries {
		if !seen[e.CardID] {
			seen[e.CardID] = true
			ids = append(ids, e.CardID)
		}
	}
	return ids
}

// TotalCards sums the quantities of entries.
func TotalCards(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}
