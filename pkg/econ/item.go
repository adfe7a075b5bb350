// Package econ defines the raw provider inventory records and the canonical
// item shape every provider is normalized into.
package econ

import "encoding/json"

// Well-known app/context pairs with derived fields.
const (
	AppSteam          = 753
	ContextSteamItems = "6"

	AppCS2          = 730
	ContextCS2Items = "2"
)

// Tag is a normalized item tag.
type Tag struct {
	InternalName string `json:"internal_name"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Color        string `json:"color"`
	CategoryName string `json:"category_name"`
}

// Item is the canonical inventory item. Its shape is closed: only the fields
// below are ever populated, whichever provider served the data.
type Item struct {
	// Identity. ID is the asset id, or the currency id for currency stacks.
	ID         string `json:"id"`
	AssetID    string `json:"assetid,omitempty"`
	CurrencyID string `json:"currencyid,omitempty"`
	IsCurrency bool   `json:"is_currency"`

	AppID      int64  `json:"appid"`
	ContextID  string `json:"contextid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     int64  `json:"amount"`
	Pos        int    `json:"pos,omitempty"`

	// Description passthroughs.
	Name              string            `json:"name,omitempty"`
	MarketName        string            `json:"market_name,omitempty"`
	MarketHashName    string            `json:"market_hash_name,omitempty"`
	NameColor         string            `json:"name_color,omitempty"`
	BackgroundColor   string            `json:"background_color,omitempty"`
	Type              string            `json:"type,omitempty"`
	IconURL           string            `json:"icon_url,omitempty"`
	IconURLLarge      string            `json:"icon_url_large,omitempty"`
	IconDragURL       string            `json:"icon_drag_url,omitempty"`
	OwnerDescriptions []DescriptionLine `json:"owner_descriptions,omitempty"`
	OwnerActions      []Action          `json:"owner_actions,omitempty"`
	MarketActions     []Action          `json:"market_actions,omitempty"`
	ItemExpiration    string            `json:"item_expiration,omitempty"`
	Sealed            int64             `json:"sealed,omitempty"`
	SealedType        int64             `json:"sealed_type,omitempty"`

	// Normalized fields, present regardless of provider.
	Tradable                    bool              `json:"tradable"`
	Marketable                  bool              `json:"marketable"`
	Commodity                   bool              `json:"commodity"`
	MarketTradableRestriction   int64             `json:"market_tradable_restriction"`
	MarketMarketableRestriction int64             `json:"market_marketable_restriction"`
	FraudWarnings               []string          `json:"fraudwarnings"`
	Descriptions                []DescriptionLine `json:"descriptions"`
	Actions                     []Action          `json:"actions"`
	Tags                        []Tag             `json:"tags"`
	Owner                       json.RawMessage   `json:"owner"`
	MarketFeeApp                int64             `json:"market_fee_app,omitempty"`
	CacheExpiration             string            `json:"cache_expiration,omitempty"`
}
