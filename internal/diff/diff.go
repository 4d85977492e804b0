// Package diff computes field-level change sets between post version
// snapshots, plus a line-level textual diff of the content field for UI
// display.
package diff

import (
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/inkpost/inkpost/internal/model"
)

type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
	FieldExcerpt Field = "excerpt"
	FieldTags    Field = "tags"
)

// TrackedFields is the set of editable fields the version store snapshots.
var TrackedFields = []Field{FieldTitle, FieldContent, FieldExcerpt, FieldTags}

// Result is the derived difference between two versions. All tracked fields
// exist on every version, so in practice an unequal field lands in Modified;
// Added and Removed only carry values once optional fields enter the model.
type Result struct {
	Added    []Field `json:"added"`
	Removed  []Field `json:"removed"`
	Modified []Field `json:"modified"`
}

// Empty reports whether the two compared versions were identical.
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Value extracts the comparable representation of a tracked field. Tags
// compare by contents, order-sensitive, via their canonical JSON encoding.
func Value(fields model.PostFields, f Field) string {
	switch f {
	case FieldTitle:
		return fields.Title
	case FieldContent:
		return fields.Content
	case FieldExcerpt:
		return fields.Excerpt
	case FieldTags:
		// an empty tag list compares as absent, not as its "[]" encoding
		if len(fields.Tags) == 0 {
			return ""
		}
		return fields.TagsJSON()
	}
	return ""
}

// Fields compares two field sets field by field.
func Fields(a, b model.PostFields) *Result {
	result := &Result{
		Added:    make([]Field, 0),
		Removed:  make([]Field, 0),
		Modified: make([]Field, 0),
	}

	for _, f := range TrackedFields {
		av := Value(a, f)
		bv := Value(b, f)
		if av == bv {
			continue
		}

		switch {
		case av == "" && bv != "":
			result.Added = append(result.Added, f)
		case av != "" && bv == "":
			result.Removed = append(result.Removed, f)
		default:
			result.Modified = append(result.Modified, f)
		}
	}

	return result
}

// Versions compares two stored snapshots.
func Versions(a, b *model.PostVersion) *Result {
	return Fields(a.Fields(), b.Fields())
}

type LineOp string

const (
	LineEqual  LineOp = "equal"
	LineInsert LineOp = "insert"
	LineDelete LineOp = "delete"
)

type LineChange struct {
	Op   LineOp `json:"op"`
	Text string `json:"text"`
}

// ContentLines produces a line-level diff of the content field using the
// LCS-based matcher from go-difflib.
func ContentLines(a, b string) []LineChange {
	left := splitLines(a)
	right := splitLines(b)

	matcher := difflib.NewMatcher(left, right)

	changes := make([]LineChange, 0)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, line := range left[op.I1:op.I2] {
				changes = append(changes, LineChange{Op: LineEqual, Text: trimNewline(line)})
			}
		case 'd':
			for _, line := range left[op.I1:op.I2] {
				changes = append(changes, LineChange{Op: LineDelete, Text: trimNewline(line)})
			}
		case 'i':
			for _, line := range right[op.J1:op.J2] {
				changes = append(changes, LineChange{Op: LineInsert, Text: trimNewline(line)})
			}
		case 'r':
			for _, line := range left[op.I1:op.I2] {
				changes = append(changes, LineChange{Op: LineDelete, Text: trimNewline(line)})
			}
			for _, line := range right[op.J1:op.J2] {
				changes = append(changes, LineChange{Op: LineInsert, Text: trimNewline(line)})
			}
		}
	}

	return changes
}

func trimNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}

// splitLines keeps the terminator on every line so the matcher compares full
// lines. The final line is normalized to carry one too; unlike
// difflib.SplitLines no blank sentinel line is appended for input ending in a
// newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	last := len(lines) - 1
	if lines[last] == "" {
		return lines[:last]
	}
	lines[last] += "\n"
	return lines
}

// Changes builds the change list embedded in a new version, describing what
// differs from its parent. A nil parent means the first version of a post,
// recorded as inserts.
func Changes(parent *model.PostVersion, next model.PostFields, authorID string, now time.Time) []model.Change {
	changes := make([]model.Change, 0)

	if parent == nil {
		for _, f := range TrackedFields {
			value := Value(next, f)
			if value == "" {
				continue
			}
			changes = append(changes, model.Change{
				Type:      model.ChangeTypeInsert,
				Field:     string(f),
				NewValue:  value,
				Timestamp: now,
				AuthorID:  authorID,
			})
		}
		return changes
	}

	base := parent.Fields()
	result := Fields(base, next)

	for _, f := range result.Added {
		changes = append(changes, model.Change{
			Type:      model.ChangeTypeInsert,
			Field:     string(f),
			NewValue:  Value(next, f),
			Timestamp: now,
			AuthorID:  authorID,
		})
	}
	for _, f := range result.Removed {
		changes = append(changes, model.Change{
			Type:      model.ChangeTypeDelete,
			Field:     string(f),
			OldValue:  Value(base, f),
			Timestamp: now,
			AuthorID:  authorID,
		})
	}
	for _, f := range result.Modified {
		changes = append(changes, model.Change{
			Type:      model.ChangeTypeUpdate,
			Field:     string(f),
			OldValue:  Value(base, f),
			NewValue:  Value(next, f),
			Timestamp: now,
			AuthorID:  authorID,
		})
	}

	return changes
}
