package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rpupo63/verbavista-backend/client"
	"github.com/rpupo63/verbavista-backend/draft"
)

// A post file is a block of "key: value" headers, a line holding only
// "---", and the content:
//
//	title: Learning React
//	tags: react, frontend
//	categories: Web
//	---
//	<p>Hello</p>
const separator = "---"

var errMissingSeparator = errors.New(`missing "---" line between headers and content`)

type document struct {
	Title      string
	Tags       string
	Categories []string
	Content    string
}

func readDocument(path string) (document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return document{}, err
	}
	return parseDocument(string(raw))
}

func parseDocument(raw string) (document, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var doc document
	offset := 0
	for offset <= len(raw) {
		end := strings.IndexByte(raw[offset:], '\n')
		var line string
		next := len(raw) + 1
		if end < 0 {
			line = raw[offset:]
		} else {
			line = raw[offset : offset+end]
			next = offset + end + 1
		}

		if strings.TrimSpace(line) == separator {
			if next <= len(raw) {
				doc.Content = strings.TrimSpace(raw[next:])
			}
			return doc, nil
		}

		if err := doc.setHeader(line); err != nil {
			return document{}, err
		}
		offset = next
	}
	return document{}, errMissingSeparator
}

func (d *document) setHeader(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("header %q is not \"key: value\"", line)
	}
	value = strings.TrimSpace(value)

	switch strings.ToLower(strings.TrimSpace(key)) {
	case "title":
		d.Title = value
	case "tags":
		d.Tags = value
	case "categories":
		d.Categories = splitList(value)
	default:
		return fmt.Errorf("unknown header %q", strings.TrimSpace(key))
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (d document) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "title: %s\n", d.Title)
	fmt.Fprintf(&b, "tags: %s\n", d.Tags)
	fmt.Fprintf(&b, "categories: %s\n", strings.Join(d.Categories, ", "))
	b.WriteString(separator + "\n")
	if d.Content != "" {
		b.WriteString(d.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func documentFromPost(p *client.Post) document {
	categories := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		categories = append(categories, c.Name)
	}
	return document{
		Title:      p.Title,
		Tags:       strings.Join(p.Tags, ", "),
		Categories: categories,
		Content:    p.Content,
	}
}

type categoryLister interface {
	ListCategories(ctx context.Context) ([]client.Category, error)
}

// categoryResolver maps category names to ids, case-insensitively. The list
// is fetched lazily and refreshed once when a name is not found.
type categoryResolver struct {
	lister categoryLister
	byName map[string]string
}

func newCategoryResolver(lister categoryLister) *categoryResolver {
	return &categoryResolver{lister: lister}
}

func (r *categoryResolver) refresh(ctx context.Context) error {
	categories, err := r.lister.ListCategories(ctx)
	if err != nil {
		return err
	}
	r.byName = make(map[string]string, len(categories))
	for _, c := range categories {
		r.byName[strings.ToLower(c.Name)] = c.ID
	}
	return nil
}

func (r *categoryResolver) ids(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if r.byName == nil {
		if err := r.refresh(ctx); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(names))
	refreshed := false
	for _, name := range names {
		id, ok := r.byName[strings.ToLower(name)]
		if !ok && !refreshed {
			if err := r.refresh(ctx); err != nil {
				return nil, err
			}
			refreshed = true
			id, ok = r.byName[strings.ToLower(name)]
		}
		if !ok {
			return nil, fmt.Errorf("unknown category %q, create it with `blogctl categories add`", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// workingState converts a document into what the draft engine edits.
func (r *categoryResolver) workingState(ctx context.Context, doc document) (draft.WorkingState, error) {
	ids, err := r.ids(ctx, doc.Categories)
	if err != nil {
		return draft.WorkingState{}, err
	}
	return draft.WorkingState{
		Title:      doc.Title,
		Content:    doc.Content,
		Tags:       doc.Tags,
		Categories: ids,
	}, nil
}
