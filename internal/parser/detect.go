package parser

import (
	"strings"

	"github.com/badno/catimport/pkg/models"
)

// DetectPlatform classifies an export by its header row. Shopify needs a
// Handle column plus a variant price column; WooCommerce is recognized by
// its regular/sale price columns; anything else is generic.
func DetectPlatform(headers []string) models.Platform {
	var hasHandle, hasVariantPrice, hasWooPrice bool

	for _, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		switch name {
		case "handle":
			hasHandle = true
		case "regular price", "sale price":
			hasWooPrice = true
		}
		if strings.Contains(name, "variant price") {
			hasVariantPrice = true
		}
	}

	switch {
	case hasHandle && hasVariantPrice:
		return models.PlatformShopify
	case hasWooPrice:
		return models.PlatformWooCommerce
	default:
		return models.PlatformGeneric
	}
}
