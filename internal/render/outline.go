package render

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ksl-hpc/aimcr/internal/types"
)

// Outline is the renderer's intermediate document model. Building it
// separately from PDF emission keeps the structural mapping a pure function
// of the input, so identical records always produce identical outlines even
// when the emitted bytes differ in timestamps or font metadata.
type Outline struct {
	Title    string
	Sections []Section
}

// Section is one titled block of the document.
type Section struct {
	Title       string
	KeyValues   [][2]string
	Paragraphs  []string
	Items       []Item
	Footer      string
	Subsections []Section
}

// Item is an enumerated entry within a section, either plain text or a small
// key/value table with an optional heading.
type Item struct {
	Heading   string
	KeyValues [][2]string
	Text      string
}

const placeholder = "—"

// metadataFields maps metadata keys to display labels, in render order.
var metadataFields = []struct{ key, label string }{
	{"reviewer_name", "Reviewer Name"},
	{"reviewer_email", "Reviewer Email"},
	{"project_name", "Project Name"},
	{"project_id", "Project ID"},
	{"review_date", "Review Date"},
}

// checkCategories maps review check-section keys to display titles, in render
// order.
var checkCategories = []struct{ key, title string }{
	{"third_party_software", "Third-Party Software"},
	{"source_code", "Source Code"},
	{"datasets", "Datasets / User Files"},
	{"models", "AI Models"},
}

// BuildOutline maps a decoded submission document onto the outline. A record
// with the known schema version gets the structured review layout; anything
// else renders best-effort as a generic key/value dump so that newer schema
// versions still produce a readable document.
func BuildOutline(doc map[string]any) *Outline {
	version, _ := doc["schema_version"].(string)
	review, hasReview := doc["review"].(map[string]any)
	if version == types.SchemaVersion && hasReview {
		return reviewOutline(doc, review)
	}
	return genericOutline(doc)
}

func reviewOutline(doc, review map[string]any) *Outline {
	out := &Outline{Title: "KSL AI Model Control Review"}

	out.Sections = append(out.Sections, Section{
		Title: "Submission",
		KeyValues: [][2]string{
			{"Record ID", stringValue(doc["id"])},
			{"Submitted At", stringValue(doc["submitted_at"])},
			{"Schema Version", stringValue(doc["schema_version"])},
		},
	})

	info := Section{Title: "Review Information"}
	metadata, _ := review["metadata"].(map[string]any)
	for _, f := range metadataFields {
		value := placeholder
		if v, ok := metadata[f.key]; ok {
			value = stringValue(v)
		}
		info.KeyValues = append(info.KeyValues, [2]string{f.label, value})
	}
	out.Sections = append(out.Sections, info)

	for _, cat := range checkCategories {
		section, _ := review[cat.key].(map[string]any)
		out.Sections = append(out.Sections, checkSectionOutline(cat.title, section))
	}

	decision := Section{Title: "Final Decision"}
	decision.Paragraphs = append(decision.Paragraphs, stringOrDefault(review["final_decision"], "Not provided."))
	out.Sections = append(out.Sections, decision)

	notes := Section{Title: "Final Notes"}
	notes.Paragraphs = append(notes.Paragraphs, stringOrDefault(review["final_notes"], "None recorded."))
	out.Sections = append(out.Sections, notes)

	// Forward compatibility: anything this layout does not recognize is still
	// rendered, as generic sections after the known ones.
	known := map[string]bool{"metadata": true, "final_decision": true, "final_notes": true, "draft_id": true}
	for _, cat := range checkCategories {
		known[cat.key] = true
	}
	for _, key := range sortedKeys(review) {
		if !known[key] {
			out.Sections = append(out.Sections, genericSection(key, review[key]))
		}
	}
	topKnown := map[string]bool{"schema_version": true, "id": true, "submitted_at": true, "review": true}
	for _, key := range sortedKeys(doc) {
		if !topKnown[key] {
			out.Sections = append(out.Sections, genericSection(key, doc[key]))
		}
	}

	return out
}

func checkSectionOutline(title string, section map[string]any) Section {
	out := Section{Title: title}
	if section == nil {
		out.Paragraphs = append(out.Paragraphs, "No checks recorded.")
		return out
	}

	checks, _ := section["checks"].([]any)
	if len(checks) == 0 {
		out.Paragraphs = append(out.Paragraphs, "No checks recorded.")
	}
	for i, raw := range checks {
		check, _ := raw.(map[string]any)
		description := stringOrDefault(check["description"], "(unnamed check)")
		out.Items = append(out.Items, Item{
			Heading: fmt.Sprintf("%d. %s", i+1, description),
			KeyValues: [][2]string{
				{"Risk Score", stringOrDefault(check["score"], placeholder)},
				{"Notes", stringOrDefault(check["notes"], placeholder)},
			},
		})
	}

	// Section extras such as repository_url or model_name.
	for _, key := range sortedKeys(section) {
		if key == "checks" || key == "cumulative_score" {
			continue
		}
		out.KeyValues = append(out.KeyValues, [2]string{key, stringValue(section[key])})
	}

	if score, ok := section["cumulative_score"]; ok {
		out.Footer = "Cumulative Risk Score: " + stringValue(score)
	}
	return out
}

func genericOutline(doc map[string]any) *Outline {
	out := &Outline{Title: "Submission Record"}
	for _, key := range sortedKeys(doc) {
		out.Sections = append(out.Sections, genericSection(key, doc[key]))
	}
	return out
}

// genericSection maps an arbitrary JSON value onto the outline: nested
// objects become sub-sections, lists become enumerated items, scalars become
// paragraphs.
func genericSection(title string, value any) Section {
	out := Section{Title: title}
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			switch child := v[key].(type) {
			case map[string]any:
				out.Subsections = append(out.Subsections, genericSection(key, child))
			case []any:
				out.Subsections = append(out.Subsections, genericSection(key, child))
			default:
				out.KeyValues = append(out.KeyValues, [2]string{key, stringValue(child)})
			}
		}
	case []any:
		for i, elem := range v {
			out.Items = append(out.Items, genericItem(i, elem))
		}
	default:
		out.Paragraphs = append(out.Paragraphs, stringValue(v))
	}
	return out
}

func genericItem(index int, elem any) Item {
	item := Item{Heading: fmt.Sprintf("%d.", index+1)}
	if m, ok := elem.(map[string]any); ok {
		for _, key := range sortedKeys(m) {
			item.KeyValues = append(item.KeyValues, [2]string{key, stringValue(m[key])})
		}
		return item
	}
	item.Text = stringValue(elem)
	return item
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringValue flattens a JSON value to display text. Numbers keep their
// source representation (the decoder uses json.Number); deeply nested
// structures fall back to compact JSON.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return placeholder
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}

func stringOrDefault(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return fallback
		}
		return s
	}
	return stringValue(v)
}
