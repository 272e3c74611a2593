package draft

import (
	"strings"

	"github.com/rpupo63/verbavista-backend/models"
)

// WorkingState is the editable copy of a post. Tags are kept as the single
// comma separated string the author types.
type WorkingState struct {
	Title      string
	Content    string
	Tags       string
	Categories []string
}

func (w WorkingState) clone() WorkingState {
	w.Categories = append([]string(nil), w.Categories...)
	return w
}

// empty matches the server, which trims before checking.
func (w WorkingState) empty() bool {
	return strings.TrimSpace(w.Title) == "" && strings.TrimSpace(w.Content) == ""
}

// Payload is the body of a create or update call.
type Payload struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Tags       []string          `json:"tags"`
	Categories []string          `json:"categories"`
	Status     models.PostStatus `json:"status"`
}

func (w WorkingState) payload(status models.PostStatus) Payload {
	categories := make([]string, 0, len(w.Categories))
	categories = append(categories, w.Categories...)
	return Payload{
		Title:      w.Title,
		Content:    w.Content,
		Tags:       NormalizeTags(w.Tags),
		Categories: categories,
		Status:     status,
	}
}

// NormalizeTags splits raw on commas, trims every entry and drops empty
// ones. Order and duplicates are preserved.
func NormalizeTags(raw string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
