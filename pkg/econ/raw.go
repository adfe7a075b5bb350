package econ

import "encoding/json"

// RawAsset is one provider-supplied asset or currency stack.
type RawAsset struct {
	AppID      FlexInt     `json:"appid"`
	ContextID  FlexString  `json:"contextid"`
	AssetID    FlexString  `json:"assetid"`
	ID         FlexString  `json:"id"`
	CurrencyID *FlexString `json:"currencyid,omitempty"`
	ClassID    FlexString  `json:"classid"`
	InstanceID FlexString  `json:"instanceid"`
	Amount     FlexString  `json:"amount"`
	IsCurrency FlexBool    `json:"is_currency"`
	Currency   FlexBool    `json:"currency"`
}

// CursorID returns the id a provider expects as the next page's start cursor.
func (a RawAsset) CursorID() string {
	if a.AssetID != "" {
		return a.AssetID.String()
	}
	if a.ID != "" {
		return a.ID.String()
	}
	if a.CurrencyID != nil {
		return a.CurrencyID.String()
	}
	return ""
}

// RawTag is a provider tag entry.
type RawTag struct {
	InternalName          string `json:"internal_name"`
	Name                  string `json:"name"`
	LocalizedTagName      string `json:"localized_tag_name"`
	Category              string `json:"category"`
	CategoryName          string `json:"category_name"`
	LocalizedCategoryName string `json:"localized_category_name"`
	Color                 string `json:"color"`
}

// DescriptionLine is one entry of a description's free-form text blocks.
type DescriptionLine struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Action is a link shown next to an item.
type Action struct {
	Link string `json:"link"`
	Name string `json:"name"`
}

// RawDescription is the static metadata shared by all assets with the same
// (classid, instanceid) pair.
type RawDescription struct {
	AppID                       FlexInt           `json:"appid"`
	ClassID                     FlexString        `json:"classid"`
	InstanceID                  FlexString        `json:"instanceid"`
	Currency                    FlexBool          `json:"currency"`
	BackgroundColor             string            `json:"background_color"`
	IconURL                     string            `json:"icon_url"`
	IconURLLarge                string            `json:"icon_url_large"`
	IconDragURL                 string            `json:"icon_drag_url"`
	Descriptions                []DescriptionLine `json:"descriptions"`
	OwnerDescriptions           []DescriptionLine `json:"owner_descriptions"`
	Tradable                    FlexBool          `json:"tradable"`
	Marketable                  FlexBool          `json:"marketable"`
	Commodity                   FlexBool          `json:"commodity"`
	Actions                     json.RawMessage   `json:"actions"`
	OwnerActions                []Action          `json:"owner_actions"`
	MarketActions               []Action          `json:"market_actions"`
	FraudWarnings               []string          `json:"fraudwarnings"`
	Name                        string            `json:"name"`
	NameColor                   string            `json:"name_color"`
	Type                        string            `json:"type"`
	MarketName                  string            `json:"market_name"`
	MarketHashName              string            `json:"market_hash_name"`
	MarketFeeApp                FlexInt           `json:"market_fee_app"`
	MarketTradableRestriction   FlexInt           `json:"market_tradable_restriction"`
	MarketMarketableRestriction FlexInt           `json:"market_marketable_restriction"`
	Tags                        []RawTag          `json:"tags"`
	ItemExpiration              string            `json:"item_expiration"`
	Owner                       json.RawMessage   `json:"owner"`
	Sealed                      FlexInt           `json:"sealed"`
	SealedType                  FlexInt           `json:"sealed_type"`
}

// Page is one decoded provider page.
type Page struct {
	Assets       []RawAsset
	Descriptions []RawDescription

	// MoreItems reports whether another page follows.
	MoreItems bool

	// LastAssetID is the provider's explicit cursor, when it sends one.
	LastAssetID string

	TotalInventoryCount int

	// Empty marks the documented zero-inventory shape: success with a total
	// count of zero, regardless of assets/descriptions presence.
	Empty bool
}

// NextCursor returns the cursor for the following page: the id of the last
// asset on this page, or the provider's explicit last asset id when the page
// carried no assets.
func (p *Page) NextCursor() string {
	if len(p.Assets) > 0 {
		if id := p.Assets[len(p.Assets)-1].CursorID(); id != "" {
			return id
		}
	}
	return p.LastAssetID
}
