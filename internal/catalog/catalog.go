// Package catalog holds the operator-maintained mapping from item id to download URLs.
package catalog

import (
	"sort"
	"strings"

	"storefront/internal/cart"
)

// DefaultItems is used when no catalog is configured.
var DefaultItems = map[string][]string{
	"marriage-honorable": {
		"https://drive.google.com/uc?export=download&id=1TerxB66O3f1zk4FrWSMyUJ2zIArkMQoF",
	},
}

// Catalog is read-only once built and safe for concurrent use.
type Catalog struct {
	files map[string][]string
}

// New copies items, dropping blank ids and blank URLs. Ids are matched
// case-insensitively since configuration keys are lower-cased when loaded.
func New(items map[string][]string) *Catalog {
	files := make(map[string][]string, len(items))
	for id, urls := range items {
		id = normalize(id)
		if id == "" {
			continue
		}
		var kept []string
		for _, u := range urls {
			if u = strings.TrimSpace(u); u != "" {
				kept = append(kept, u)
			}
		}
		files[id] = kept
	}
	return &Catalog{files: files}
}

func (c *Catalog) lookup(id string) ([]string, bool) {
	urls, ok := c.files[normalize(id)]
	return urls, ok
}

// IDs returns all known item ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.files))
	for id := range c.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Catalog) Len() int { return len(c.files) }

// Resolve returns the union of URLs for the cart in first-seen order, plus the
// keys of lines that mapped to nothing.
func (c *Catalog) Resolve(items []cart.Item) (files []string, unmapped []string) {
	files = []string{}
	seen := make(map[string]struct{})
	for _, it := range items {
		key := it.Key()
		if key == "" {
			unmapped = append(unmapped, "")
			continue
		}
		urls, ok := c.lookup(key)
		if !ok {
			unmapped = append(unmapped, key)
			continue
		}
		for _, u := range urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			files = append(files, u)
		}
	}
	return files, unmapped
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
