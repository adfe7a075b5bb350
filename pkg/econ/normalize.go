package econ

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedItem is returned by Item.Validate when a normalized record
// breaks the identity invariants.
var ErrMalformedItem = errors.New("malformed item")

const tradableAfterPrefix = "Tradable After "

var (
	marketFeeAppPattern = regexp.MustCompile(`^(\d+)-`)
	tradableAfterStrip  = strings.NewReplacer(",", "", "(", "", ")", "")
)

// isoMillis matches the ISO-8601 rendering with millisecond precision used
// for cache_expiration.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Normalize merges one raw asset with its matched description into the
// canonical Item. desc may be nil when the provider sent no matching
// description; contextID is used when the asset omits its own.
func Normalize(asset RawAsset, desc *RawDescription, contextID string) Item {
	item := Item{
		AppID:      int64(asset.AppID),
		ContextID:  asset.ContextID.String(),
		ClassID:    asset.ClassID.String(),
		InstanceID: asset.InstanceID.String(),
		Amount:     parseLeadingInt(asset.Amount.String()),
	}

	// Identity comes from the raw asset alone; descriptions never change it.
	isCurrency := bool(asset.IsCurrency) || bool(asset.Currency) || asset.CurrencyID != nil
	item.IsCurrency = isCurrency
	if isCurrency {
		item.ID = firstNonEmpty(asset.ID.String(), flexPtr(asset.CurrencyID), asset.AssetID.String())
		item.CurrencyID = item.ID
	} else {
		item.ID = firstNonEmpty(asset.ID.String(), asset.AssetID.String())
		item.AssetID = item.ID
	}

	if item.ContextID == "" {
		item.ContextID = contextID
	}
	if item.Amount < 0 {
		item.Amount = 0
	}

	if desc != nil {
		applyDescription(&item, desc)
	}

	if item.InstanceID == "" {
		item.InstanceID = "0"
	}
	if item.FraudWarnings == nil {
		item.FraudWarnings = []string{}
	}
	if item.Descriptions == nil {
		item.Descriptions = []DescriptionLine{}
	}
	if item.Actions == nil {
		item.Actions = []Action{}
	}
	if item.Tags == nil {
		item.Tags = []Tag{}
	}

	return item
}

func applyDescription(item *Item, desc *RawDescription) {
	if item.AppID == 0 {
		item.AppID = int64(desc.AppID)
	}
	if item.ClassID == "" {
		item.ClassID = desc.ClassID.String()
	}
	if item.InstanceID == "" {
		item.InstanceID = desc.InstanceID.String()
	}

	item.Name = desc.Name
	item.MarketName = desc.MarketName
	item.MarketHashName = desc.MarketHashName
	item.NameColor = desc.NameColor
	item.BackgroundColor = desc.BackgroundColor
	item.Type = desc.Type
	item.IconURL = desc.IconURL
	item.IconURLLarge = desc.IconURLLarge
	item.IconDragURL = desc.IconDragURL
	item.OwnerDescriptions = desc.OwnerDescriptions
	item.OwnerActions = desc.OwnerActions
	item.MarketActions = desc.MarketActions
	item.ItemExpiration = desc.ItemExpiration
	item.Sealed = int64(desc.Sealed)
	item.SealedType = int64(desc.SealedType)

	item.Tradable = bool(desc.Tradable)
	item.Marketable = bool(desc.Marketable)
	item.Commodity = bool(desc.Commodity)
	item.MarketTradableRestriction = int64(desc.MarketTradableRestriction)
	item.MarketMarketableRestriction = int64(desc.MarketMarketableRestriction)
	item.FraudWarnings = desc.FraudWarnings
	item.Descriptions = desc.Descriptions
	item.Actions = parseActions(desc.Actions)
	item.Tags = parseTags(desc.Tags)
	item.Owner = parseOwner(desc.Owner)
	item.MarketFeeApp = int64(desc.MarketFeeApp)

	if item.AppID == AppSteam && item.ContextID == ContextSteamItems && item.MarketHashName != "" {
		if m := marketFeeAppPattern.FindStringSubmatch(item.MarketHashName); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				item.MarketFeeApp = n
			}
		}
	}

	if item.AppID == AppCS2 && item.ContextID == ContextCS2Items {
		item.CacheExpiration = tradableAfter(item.OwnerDescriptions)
	}
	if item.ItemExpiration != "" {
		item.CacheExpiration = item.ItemExpiration
	}
}

// tradableAfter extracts the trade-hold expiry from a "Tradable After
// Jan 2, 2006 (15:04:05) GMT" owner description.
func tradableAfter(lines []DescriptionLine) string {
	for _, line := range lines {
		if !strings.HasPrefix(line.Value, tradableAfterPrefix) {
			continue
		}
		raw := tradableAfterStrip.Replace(strings.TrimPrefix(line.Value, tradableAfterPrefix))
		t, err := time.Parse("Jan 2 2006 15:04:05 MST", strings.Join(strings.Fields(raw), " "))
		if err != nil {
			return ""
		}
		return t.UTC().Format(isoMillis)
	}
	return ""
}

func parseTags(tags []RawTag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, Tag{
			InternalName: t.InternalName,
			Name:         firstNonEmpty(t.LocalizedTagName, t.Name),
			Category:     t.Category,
			Color:        t.Color,
			CategoryName: firstNonEmpty(t.LocalizedCategoryName, t.CategoryName),
		})
	}
	return out
}

// parseActions accepts an array of actions; an empty string or anything
// else decodes to an empty list.
func parseActions(raw json.RawMessage) []Action {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []Action{}
	}
	var actions []Action
	if err := json.Unmarshal(raw, &actions); err != nil || actions == nil {
		return []Action{}
	}
	return actions
}

// parseOwner returns nil for an absent, null or empty-object owner.
func parseOwner(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err == nil && len(m) == 0 {
		return nil
	}
	return raw
}

// Validate checks the identity invariants of a normalized item.
func (it Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("%w: empty id (classid %s)", ErrMalformedItem, it.ClassID)
	}
	if it.Amount < 0 {
		return fmt.Errorf("%w: negative amount %d for %s", ErrMalformedItem, it.Amount, it.ID)
	}
	if (it.AssetID == "") == (it.CurrencyID == "") {
		return fmt.Errorf("%w: item %s must carry exactly one of assetid/currencyid", ErrMalformedItem, it.ID)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func flexPtr(s *FlexString) string {
	if s == nil {
		return ""
	}
	return s.String()
}
