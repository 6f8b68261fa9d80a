package topics

import (
	"time"

	"datasync/internal/report"

	"github.com/tidwall/gjson"
)

// Article is one normalized content item. Section is "" when the source has
// no section for the post.
type Article struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	PublishedAt time.Time `json:"publishedAt"`
	Section     string    `json:"section,omitempty"`
	Authors     []string  `json:"authors"`
	Tags        []string  `json:"tags"`
}

// Candidate orders cover vanilla WordPress, its _embed expansion and the
// flattened shapes some site plugins emit. First non-empty match wins.
var (
	titleCandidates = []string{"title.rendered", "title", "headline"}
	slugCandidates  = []string{"slug", "post_name"}
	dateCandidates  = []string{"date_gmt", "date", "published_at", "publishedAt"}
	sectionCandidates = []string{
		"section",
		"category",
		"_embedded.wp:term.0.0.name",
	}
	authorCandidates = []string{
		"author_names",
		"_embedded.author.#.name",
		"authors",
		"author_name",
	}
	tagCandidates = []string{
		"tag_names",
		"_embedded.wp:term.1.#.name",
		"tags",
	}
)

func mapArticle(item gjson.Result) Article {
	return Article{
		Title:       report.FirstString(item, titleCandidates...),
		Slug:        report.FirstString(item, slugCandidates...),
		PublishedAt: parseDate(report.FirstString(item, dateCandidates...)),
		Section:     report.FirstString(item, sectionCandidates...),
		Authors:     report.FirstStringList(item, authorCandidates...),
		Tags:        report.FirstStringList(item, tagCandidates...),
	}
}

// parseDate accepts RFC 3339 or WordPress's zone-less "2006-01-02T15:04:05".
func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
