package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Platform identifies the store software that produced an export
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformGeneric     Platform = "generic"
)

// Platforms lists every supported export format in detection order
var Platforms = []Platform{PlatformShopify, PlatformWooCommerce, PlatformGeneric}

// ParsePlatform converts a user-supplied name into a Platform
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform: %s", s)
}

// Status is the publication state of an imported product
type Status string

const (
	StatusActive Status = "active"
	StatusDraft  Status = "draft"
)

// ImportRecord is one normalized product ready to be pushed to the catalog
type ImportRecord struct {
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	ComparePrice   *float64  `json:"compare_price"`
	ImageURL       string    `json:"image_url"`
	StockCount     int       `json:"stock_count"`
	CategoryPath   []string  `json:"category_path"`
	Tags           string    `json:"tags"`
	Status         Status    `json:"status"`
	SEOTitle       string    `json:"seo_title"`
	SEODescription string    `json:"seo_description"`
	Variants       []Variant `json:"variants"`
}

// HasVariants reports whether the record carries real variants.
// A single variant is folded into the base product and never emitted.
func (r *ImportRecord) HasVariants() bool {
	return len(r.Variants) > 1
}

// Variant is a purchasable option combination of a product
type Variant struct {
	Name       string  `json:"name"`
	Options    Options `json:"options"`
	Price      float64 `json:"price"`
	StockCount int     `json:"stock_count"`
	SKU        string  `json:"sku"`
}

// ErrInvalidOptions is returned when an options payload is not a flat string object
var ErrInvalidOptions = errors.New("invalid variant options")

// Options maps an option name (e.g. "Size") to its value (e.g. "M")
type Options map[string]string

// JSON encodes the options as the object string the catalog API expects
func (o Options) JSON() string {
	if len(o) == 0 {
		return "{}"
	}
	// map[string]string always marshals
	data, _ := json.Marshal(map[string]string(o))
	return string(data)
}

// ParseOptions decodes an options object string. Anything other than a JSON
// object whose values are all strings is rejected.
func ParseOptions(s string) (Options, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidOptions)
	}

	opts := make(Options, len(raw))
	for name, value := range raw {
		var v string
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("%w: option %q is not a string", ErrInvalidOptions, name)
		}
		opts[name] = v
	}
	return opts, nil
}
