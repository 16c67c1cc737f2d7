package category

import (
	"regexp"
	"strings"
)

const fallbackSlug = "category"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a category name into a lowercase, hyphenated identifier
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// childSlug prefixes a segment slug with its parent's slug
func childSlug(parentSlug, name string) string {
	if parentSlug == "" {
		return Slugify(name)
	}
	return parentSlug + "-" + Slugify(name)
}
