package testutil

import (
	"encoding/json"
	"fmt"
)

// FixtureItem is one asset plus its description in a generated page.
type FixtureItem struct {
	ID         string
	ClassID    string
	InstanceID string
	Amount     int
	Currency   bool
	Tradable   bool
	Name       string
}

// FixturePage generates an economy inventory document.
type FixturePage struct {
	AppID     int
	ContextID string
	Items     []FixtureItem
	MoreItems bool
	Total     int

	// Envelope wraps the document in {"response": ...} as the Web API does.
	Envelope bool
}

// JSON renders the page.
func (p FixturePage) JSON() string {
	assets := make([]map[string]any, 0, len(p.Items))
	descs := make([]map[string]any, 0, len(p.Items))
	seen := make(map[string]bool)

	for _, it := range p.Items {
		instance := it.InstanceID
		if instance == "" {
			instance = "0"
		}
		amount := it.Amount
		if amount == 0 {
			amount = 1
		}

		asset := map[string]any{
			"appid":      p.AppID,
			"contextid":  p.ContextID,
			"classid":    it.ClassID,
			"instanceid": instance,
			"amount":     fmt.Sprint(amount),
		}
		if it.Currency {
			asset["currencyid"] = it.ID
		} else {
			asset["assetid"] = it.ID
		}
		assets = append(assets, asset)

		key := it.ClassID + "_" + instance
		if seen[key] {
			continue
		}
		seen[key] = true
		name := it.Name
		if name == "" {
			name = "Item " + it.ClassID
		}
		descs = append(descs, map[string]any{
			"appid":            p.AppID,
			"classid":          it.ClassID,
			"instanceid":       instance,
			"currency":         boolInt(it.Currency),
			"name":             name,
			"market_hash_name": name,
			"tradable":         boolInt(it.Tradable),
			"marketable":       boolInt(it.Tradable),
			"commodity":        0,
			"tags":             []any{},
		})
	}

	doc := map[string]any{
		"assets":                assets,
		"descriptions":          descs,
		"total_inventory_count": p.Total,
	}
	if p.MoreItems && len(p.Items) > 0 {
		doc["more_items"] = 1
		doc["last_assetid"] = p.Items[len(p.Items)-1].ID
	}

	var out any = doc
	if p.Envelope {
		out = map[string]any{"response": doc}
	} else {
		doc["success"] = 1
		doc["rwgrsn"] = -2
	}

	data, err := json.Marshal(out)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Items generates n tradable items with ids start, start+1, ...
func Items(start, n int) []FixtureItem {
	items := make([]FixtureItem, n)
	for i := range items {
		id := start + i
		items[i] = FixtureItem{
			ID:       fmt.Sprint(id),
			ClassID:  fmt.Sprint(1000 + id%7),
			Tradable: true,
		}
	}
	return items
}

// EmptyInventoryJSON is the documented zero-inventory document.
const EmptyInventoryJSON = `{"success":1,"total_inventory_count":0,"rwgrsn":-2}`

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
