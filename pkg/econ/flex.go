package econ

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Providers disagree on scalar encodings: the community endpoint sends ids as
// strings and flags as 0/1, mirrors re-serialize them as numbers or booleans.
// The Flex types accept every encoding seen in the wild.

// FlexString is a JSON string that also accepts numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the underlying string.
func (s FlexString) String() string { return string(s) }

// FlexInt is an integer that also accepts numeric strings. Empty or
// unparsable strings decode to zero.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	*i = FlexInt(parseLeadingInt(raw))
	return nil
}

// FlexBool is a boolean that also accepts 0/1 and "0"/"1"/"true"/"false".
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "", "null", "false", "0", `""`, `"0"`, `"false"`:
		*b = false
		return nil
	case "true", "1", `"1"`, `"true"`:
		*b = true
		return nil
	}
	// Any other number or non-empty string is truthy.
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flex bool: %w", err)
	}
	switch t := v.(type) {
	case float64:
		*b = t != 0
	case string:
		*b = t != ""
	default:
		*b = true
	}
	return nil
}

// parseLeadingInt parses the leading integer of s the way a lenient parser
// would: "12abc" is 12, "abc" is 0.
func parseLeadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
