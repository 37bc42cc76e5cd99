package outlet

import (
	"strings"
	"time"
)

// Article is a recently published piece of an outlet, used for the news match.
type Article struct {
	ID          string    `json:"id,omitempty"`
	OutletID    string    `json:"outlet_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

func (a Article) Text() string {
	return strings.TrimSpace(a.Title + " " + a.Description)
}
