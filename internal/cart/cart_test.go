package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedMinorAmount(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  int64
	}{
		{name: "empty cart", items: nil, want: 0},
		{name: "single book", items: []Item{{ID: "marriage-honorable", Price: 1500, Qty: 1}}, want: 150000},
		{name: "quantity multiplies", items: []Item{{Price: 1500, Qty: 3}}, want: 450000},
		{name: "missing qty counts once", items: []Item{{Price: 2000}}, want: 200000},
		{name: "negative qty counts once", items: []Item{{Price: 2000, Qty: -4}}, want: 200000},
		{name: "fractional prices", items: []Item{{Price: 12.5, Qty: 1}, {Price: 0.25, Qty: 2}}, want: 1300},
		{name: "float drift rounds once", items: []Item{{Price: 0.1, Qty: 1}, {Price: 0.2, Qty: 1}}, want: 30},
		{name: "several lines", items: []Item{{Price: 1500, Qty: 1}, {Price: 2500, Qty: 2}}, want: 650000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedMinorAmount(tt.items))
		})
	}
}

func TestItemUnmarshal_FlexibleScalars(t *testing.T) {
	var items []Item
	err := json.Unmarshal([]byte(`[
		{"id":"a","title":"A","price":"1500.00","qty":"2"},
		{"id":42,"price":99.5,"qty":1},
		{"productId":"p-1","price":null,"qty":null},
		{"sku":"S1","price":"abc","qty":2.9}
	]`), &items)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, Item{ID: "a", Title: "A", Price: 1500, Qty: 2}, items[0])
	assert.Equal(t, "42", items[1].ID)
	assert.Equal(t, 99.5, items[1].Price)
	assert.Equal(t, "p-1", items[2].ProductID)
	assert.Zero(t, items[2].Price)
	assert.Equal(t, 1, items[2].Quantity())
	assert.Zero(t, items[3].Price)
	assert.Equal(t, 2, items[3].Qty)
}

func TestItemKey(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{name: "id wins", item: Item{ID: "x", ProductID: "p", SKU: "s", Title: "T"}, want: "x"},
		{name: "product id", item: Item{ProductID: "p", SKU: "s"}, want: "p"},
		{name: "sku", item: Item{SKU: "s", Title: "T"}, want: "s"},
		{name: "blank id skipped", item: Item{ID: "  ", SKU: "s"}, want: "s"},
		{name: "slugified title", item: Item{Title: "Marriage Honorable"}, want: "marriage-honorable"},
		{name: "nothing usable", item: Item{Price: 10}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Key())
		})
	}
}

func TestFromMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
		wantIDs  []string
		wantFrom Source
	}{
		{
			name:     "cart array",
			metadata: `{"cart":[{"id":"marriage-honorable","price":1500,"qty":1}]}`,
			wantIDs:  []string{"marriage-honorable"},
			wantFrom: SourceMetadata,
		},
		{
			name:     "cart as json string",
			metadata: `{"cart":"[{\"id\":\"a\",\"price\":1},{\"id\":\"b\",\"price\":2}]"}`,
			wantIDs:  []string{"a", "b"},
			wantFrom: SourceMetadata,
		},
		{
			name:     "metadata itself encoded as string",
			metadata: `"{\"cart\":[{\"id\":\"a\",\"price\":1}]}"`,
			wantIDs:  []string{"a"},
			wantFrom: SourceMetadata,
		},
		{
			name:     "custom field by variable name",
			metadata: `{"custom_fields":[{"display_name":"Phone","variable_name":"phone","value":"080"},{"display_name":"Items","variable_name":"Cart","value":"[{\"id\":\"c\",\"price\":3}]"}]}`,
			wantIDs:  []string{"c"},
			wantFrom: SourceCustomFields,
		},
		{
			name:     "custom field by display name with array value",
			metadata: `{"custom_fields":[{"display_name":"CART","variable_name":"items","value":[{"id":"d","price":4}]}]}`,
			wantIDs:  []string{"d"},
			wantFrom: SourceCustomFields,
		},
		{
			name:     "empty cart falls through to custom fields",
			metadata: `{"cart":[],"custom_fields":[{"variable_name":"cart","value":"[{\"id\":\"e\"}]"}]}`,
			wantIDs:  []string{"e"},
			wantFrom: SourceCustomFields,
		},
		{name: "malformed cart string", metadata: `{"cart":"[{oops"}`, wantFrom: SourceNone},
		{name: "cart wrong type", metadata: `{"cart":17}`, wantFrom: SourceNone},
		{name: "empty metadata string", metadata: `""`, wantFrom: SourceNone},
		{name: "null metadata", metadata: `null`, wantFrom: SourceNone},
		{name: "no metadata", metadata: ``, wantFrom: SourceNone},
		{name: "unrelated custom fields", metadata: `{"custom_fields":[{"variable_name":"phone","value":"080"}]}`, wantFrom: SourceNone},
		{name: "custom field with malformed value", metadata: `{"custom_fields":[{"variable_name":"cart","value":"not json"}]}`, wantFrom: SourceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, from := FromMetadata(json.RawMessage(tt.metadata))
			assert.Equal(t, tt.wantFrom, from)
			var ids []string
			for _, it := range items {
				ids = append(ids, it.Key())
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestParseItems(t *testing.T) {
	items, err := ParseItems(json.RawMessage(`"  [{\"id\":\"a\"}] "`))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = ParseItems(json.RawMessage(`{"id":"a"}`))
	assert.Error(t, err)

	_, err = ParseItems(nil)
	assert.Error(t, err)
}
