// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Article and StoredArticle, along with
// their validation rules and the error taxonomy shared by the store and remote layers.
package entity

// Article represents a single news item as returned by the remote API.
// URL is the identity key: equality, deduplication and lookup use it exclusively.
// Optional fields (Author, ImageURL, Content) hold the empty string when absent.
type Article struct {
	Title       string
	Author      string
	ImageURL    string
	PublishedAt string // ISO-8601 text, compared lexicographically
	Content     string
	URL         string
	SourceName  string
}

// Key returns the identity key of the article.
func (a Article) Key() string {
	return a.URL
}

// SameAs reports whether both values describe the same article entity.
func (a Article) SameAs(other Article) bool {
	return a.URL == other.URL
}

// StoredArticle is an Article persisted in the local store together with its bookmark flag.
type StoredArticle struct {
	Article
	Bookmarked bool
}

// Articles strips the bookmark flag from a slice of stored records.
func Articles(records []StoredArticle) []Article {
	out := make([]Article, 0, len(records))
	for _, r := range records {
		out = append(out, r.Article)
	}
	return out
}

// DedupeByURL keeps the first occurrence of every URL and preserves order.
func DedupeByURL(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}
