package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Source names where a cart was recovered from.
type Source string

const (
	SourceNone         Source = "none"
	SourceMetadata     Source = "metadata"
	SourceCustomFields Source = "custom_fields"
	SourceClient       Source = "client"
)

var errNotCart = errors.New("value is not a cart")

type customField struct {
	DisplayName  string          `json:"display_name"`
	VariableName string          `json:"variable_name"`
	Value        json.RawMessage `json:"value"`
}

// FromMetadata recovers the cart from transaction metadata, trying metadata.cart
// and then a custom field named "cart". Any malformed shape yields an empty cart.
func FromMetadata(metadata json.RawMessage) ([]Item, Source) {
	fields, ok := decodeObject(metadata)
	if !ok {
		return nil, SourceNone
	}
	if items, err := ParseItems(fields["cart"]); err == nil && len(items) > 0 {
		return items, SourceMetadata
	}
	var custom []customField
	if raw, ok := fields["custom_fields"]; ok && json.Unmarshal(raw, &custom) == nil {
		for _, f := range custom {
			if !strings.EqualFold(strings.TrimSpace(f.VariableName), "cart") &&
				!strings.EqualFold(strings.TrimSpace(f.DisplayName), "cart") {
				continue
			}
			if items, err := ParseItems(f.Value); err == nil && len(items) > 0 {
				return items, SourceCustomFields
			}
		}
	}
	return nil, SourceNone
}

// ParseItems decodes a cart given either as a JSON array or as a string holding one.
func ParseItems(raw json.RawMessage) ([]Item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errNotCart
	}
	switch raw[0] {
	case '[':
		var items []Item
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) == 0 || inner[0] != '[' {
			return nil, errNotCart
		}
		return ParseItems(inner)
	default:
		return nil, errNotCart
	}
}

// decodeObject accepts an object or a string containing an object.
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		raw = bytes.TrimSpace([]byte(s))
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}
