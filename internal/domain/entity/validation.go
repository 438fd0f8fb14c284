package entity

import "strings"

// ValidateArticle checks the fields every stored or decoded article must carry.
// Returns a ValidationError naming the first missing field.
func ValidateArticle(a Article) error {
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if a.URL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	return nil
}
