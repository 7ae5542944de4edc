// Package supporting turns raw data_points records into display-ready items.
package supporting

import (
	"encoding/json"
	"fmt"

	"ai-oneshot-console/pkg/ask"
)

// Item is one supporting content record. Fields hold whatever the service
// sent, of any JSON type. A nil field was absent or null in the raw record.
type Item struct {
	ID       *ask.Value `json:"id"`
	Score    *ask.Value `json:"score"`
	Title    *ask.Value `json:"title"`
	Category *ask.Value `json:"category"`
	Content  *ask.Value `json:"content"`
}

// ParseItem extracts id, score, title, category and content from raw.
// It never fails: a malformed record degrades to an item with nil fields.
func ParseItem(raw json.RawMessage) Item {
	var fields map[string]*ask.Value
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Item{}
	}
	return Item{
		ID:       fields["id"],
		Score:    fields["score"],
		Title:    fields["title"],
		Category: fields["category"],
		Content:  fields["content"],
	}
}

// ParseAll parses every record in order.
func ParseAll(raws []json.RawMessage) []Item {
	items := make([]Item, len(raws))
	for i, raw := range raws {
		items[i] = ParseItem(raw)
	}
	return items
}

// Missing reports the names of absent fields, for diagnostics only.
func (it Item) Missing() []string {
	var missing []string
	if it.ID == nil {
		missing = append(missing, "id")
	}
	if it.Score == nil {
		missing = append(missing, "score")
	}
	if it.Title == nil {
		missing = append(missing, "title")
	}
	if it.Category == nil {
		missing = append(missing, "category")
	}
	if it.Content == nil {
		missing = append(missing, "content")
	}
	return missing
}

// Header renders the id and score line the way the supporting content pane shows it.
func (it Item) Header() string {
	return fmt.Sprintf("%s  score: %s", Text(it.ID), Text(it.Score))
}

// Text renders a field for display; absent fields read "undefined".
func Text(v *ask.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.Text()
}
