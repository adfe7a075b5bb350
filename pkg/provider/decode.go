package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
)

// inventoryBody is the economy inventory document shared by all backends.
type inventoryBody struct {
	Success             *econ.FlexBool        `json:"success"`
	Assets              []econ.RawAsset       `json:"assets"`
	Descriptions        []econ.RawDescription `json:"descriptions"`
	MoreItems           econ.FlexBool         `json:"more_items"`
	LastAssetID         econ.FlexString       `json:"last_assetid"`
	TotalInventoryCount *econ.FlexInt         `json:"total_inventory_count"`

	// Matches both "error" and "Error".
	Error econ.FlexString `json:"error"`
}

var eresultSuffix = regexp.MustCompile(`\((\d+)\)\s*$`)

// errorMessage extracts {"error": "..."} from a JSON body, if present.
func errorMessage(body []byte) (string, bool) {
	var b struct {
		Error econ.FlexString `json:"error"`
	}
	if err := json.Unmarshal(body, &b); err != nil || b.Error == "" {
		return "", false
	}
	return string(b.Error), true
}

// providerError builds an ErrorKindProvider error from a backend message,
// parsing a trailing EResult code such as "Failure (2)".
func providerError(p Kind, status int, msg string) *Error {
	e := newError(p, ErrorKindProvider, status, msg)
	if m := eresultSuffix.FindStringSubmatch(msg); m != nil {
		e.EResult, _ = strconv.Atoi(m[1])
	}
	return e
}

func httpError(p Kind, status int) *Error {
	return newError(p, ErrorKindProvider, status, fmt.Sprintf("HTTP error %d", status))
}

func malformed(p Kind, status int, msg string) *Error {
	return newError(p, ErrorKindMalformedResponse, status, msg)
}

// isEmptyBody reports whether a body carries no document (empty or null).
func isEmptyBody(body []byte) bool {
	b := bytes.TrimSpace(body)
	return len(b) == 0 || string(b) == "null"
}

// bodyContains does a case-insensitive substring search.
func bodyContains(body []byte, substr string) bool {
	return strings.Contains(strings.ToLower(string(body)), strings.ToLower(substr))
}

// decodePage turns an inventory document into a Page.
// requireSuccess enforces success == 1 for backends that always send it.
func decodePage(p Kind, status int, data []byte, requireSuccess bool) (*econ.Page, error) {
	var body inventoryBody
	if err := json.Unmarshal(data, &body); err != nil {
		e := malformed(p, status, "invalid json")
		e.Err = err
		return nil, e
	}
	return bodyToPage(p, status, &body, requireSuccess)
}

func bodyToPage(p Kind, status int, body *inventoryBody, requireSuccess bool) (*econ.Page, error) {
	if body.Error != "" {
		return nil, providerError(p, status, string(body.Error))
	}

	succeeded := body.Success == nil || bool(*body.Success)
	if requireSuccess && body.Success == nil {
		succeeded = false
	}

	// A successful zero-count inventory is complete regardless of the lists.
	if succeeded && body.TotalInventoryCount != nil && *body.TotalInventoryCount == 0 {
		return &econ.Page{Empty: true}, nil
	}

	if !succeeded {
		return nil, malformed(p, status, "success flag not set")
	}
	if body.Assets == nil || body.Descriptions == nil {
		return nil, malformed(p, status, "missing assets or descriptions")
	}

	page := &econ.Page{
		Assets:       body.Assets,
		Descriptions: body.Descriptions,
		MoreItems:    bool(body.MoreItems),
		LastAssetID:  string(body.LastAssetID),
	}
	if body.TotalInventoryCount != nil {
		page.TotalInventoryCount = int(*body.TotalInventoryCount)
	}
	return page, nil
}
