// Package cart decodes the storefront cart as it travels through payment
// metadata and computes the charge the processor should have taken for it.
package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// MinorUnitsPerMajor is the fixed kobo-per-naira ratio the processor charges in.
const MinorUnitsPerMajor = 100

// Item is one cart line as written by the browser cart store.
type Item struct {
	ID        string  `json:"id,omitempty"`
	ProductID string  `json:"productId,omitempty"`
	SKU       string  `json:"sku,omitempty"`
	Title     string  `json:"title,omitempty"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
	PDF       string  `json:"pdf,omitempty"`
}

// UnmarshalJSON accepts numbers or numeric strings for price, qty and the identifiers,
// since carts are serialized by hand-written client code.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        flexString `json:"id"`
		ProductID flexString `json:"productId"`
		SKU       flexString `json:"sku"`
		Title     string     `json:"title"`
		Price     flexNumber `json:"price"`
		Qty       flexNumber `json:"qty"`
		PDF       string     `json:"pdf"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*it = Item{
		ID:        string(raw.ID),
		ProductID: string(raw.ProductID),
		SKU:       string(raw.SKU),
		Title:     raw.Title,
		Price:     float64(raw.Price),
		Qty:       int(math.Trunc(float64(raw.Qty))),
		PDF:       raw.PDF,
	}
	return nil
}

// Quantity is the effective line quantity; missing or non-positive counts as 1.
func (it Item) Quantity() int {
	if it.Qty < 1 {
		return 1
	}
	return it.Qty
}

// Key resolves the identifier used for file lookup: id, then productId, then sku,
// then a slug of the title. Empty when none is usable.
func (it Item) Key() string {
	for _, v := range []string{it.ID, it.ProductID, it.SKU} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if t := strings.TrimSpace(it.Title); t != "" {
		return slug.Make(t)
	}
	return ""
}

// ExpectedMinorAmount returns round(Σ price × qty × 100), rounded once over the whole cart.
func ExpectedMinorAmount(items []Item) int64 {
	var sum float64
	for _, it := range items {
		if math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			continue
		}
		sum += it.Price * float64(it.Quantity()) * MinorUnitsPerMajor
	}
	return int64(math.Round(sum))
}

// flexString decodes a JSON string or number into its string form; anything else is empty.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*s = ""
		return nil
	}
	*s = flexString(n.String())
	return nil
}

// flexNumber decodes a JSON number or numeric string; unparsable values become 0.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = 0
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*n = flexNumber(f)
		}
	case 'n', 't', 'f', '[', '{':
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err == nil {
			*n = flexNumber(f)
		}
	}
	return nil
}
