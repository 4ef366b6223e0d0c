package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndFlatten(t *testing.T) {
	doc, err := Parse([]byte(`{"investigator_code":"01001","slots":{"02001":2},"sideSlots":{}}`))
	require.NoError(t, err)

	assert.Equal(t, []Entry{{"01001", 1}, {"02001", 2}}, Entries(doc))
}

func TestParseLenientSideSlots(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty list", `{"investigator_code":"01001","slots":{"01020":1},"sideSlots":[]}`},
		{"string", `{"investigator_code":"01001","slots":{"01020":1},"sideSlots":"none"}`},
		{"null", `{"investigator_code":"01001","slots":{"01020":1},"sideSlots":null}`},
		{"wrong value type", `{"investigator_code":"01001","slots":{"01020":1},"sideSlots":{"01030":"two"}}`},
		{"absent", `{"investigator_code":"01001","slots":{"01020":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.payload))
			require.NoError(t, err)
			assert.NotNil(t, doc.SideSlots)
			assert.Empty(t, doc.SideSlots)
			assert.Equal(t, []Entry{{"01001", 1}, {"01020", 1}}, Entries(doc))
		})
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `deck`},
		{"array", `[1,2,3]`},
		{"missing investigator", `{"slots":{"01020":1}}`},
		{"numeric investigator", `{"investigator_code":1001}`},
		{"empty investigator", `{"investigator_code":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.payload))
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	doc, err := Parse([]byte(`{"id":12345,"name":"Roland's Run","investigator_code":"01001","taboo_id":7,"meta":"{}"}`))
	require.NoError(t, err)

	assert.Equal(t, "12345", doc.ID)
	assert.Equal(t, "Roland's Run", doc.Name)
	assert.Empty(t, doc.Slots)
	assert.Equal(t, []Entry{{"01001", 1}}, Entries(doc))
}

func TestEntriesDoNotMergeGroups(t *testing.T) {
	doc, err := Parse([]byte(`{
		"investigator_code": "01001",
		"slots": {"01001": 1, "01030": 2, "01020": 1},
		"sideSlots": {"01030": 1}
	}`))
	require.NoError(t, err)

	entries := Entries(doc)
	assert.Equal(t, []Entry{
		{"01001", 1},
		{"01001", 1},
		{"01020", 1},
		{"01030", 2},
		{"01030", 1},
	}, entries)
	assert.Equal(t, []string{"01001", "01020", "01030"}, UniqueCardIDs(entries))
	assert.Equal(t, 6, TotalCards(entries))
}

func TestEntriesDropNonPositiveQuantities(t *testing.T) {
	doc := &Document{
		InvestigatorCode: "02001",
		Slots:            map[string]int{"02010": 0, "02011": -1, "02012": 3},
	}

	assert.Equal(t, []Entry{{"02001", 1}, {"02012", 3}}, Entries(doc))
}
