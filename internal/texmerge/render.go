package texmerge

import (
	"regexp"

	"genassign/internal/worksheet"
)

// varMarker matches the `\VAR{Name}` placeholder convention. The marker is
// declared in the template as a no-op LaTeX macro, so it survives
// independent compilation of the template during authoring.
var varMarker = regexp.MustCompile(`\\VAR\{([^{}]*)\}`)

// Document is one record's rendered source: the template with placeholders
// substituted and, for assignment output, the toggle set to a mode. It is
// owned by a single batch iteration and discarded after compilation.
type Document struct {
	Text string
	Mode Mode

	// Unresolved lists placeholder names no record field matched, in
	// first-appearance order. Empty after a strict render.
	Unresolved []string
}

// Render substitutes every `\VAR{Name}` marker whose name matches a field of
// the record with that field's value, as literal text. Deterministic:
// rendering the same (template, record) pair twice yields identical output.
//
// strict governs unresolved markers. Generic mail-merge renders strictly and
// fails the record with a MissingFieldError; assignment templates may carry
// markers not present in every worksheet, so unmatched markers pass through
// and are reported via Document.Unresolved.
func Render(tpl *Template, rec worksheet.Record, strict bool) (Document, error) {
	var unresolved []string
	seen := make(map[string]struct{})

	text := varMarker.ReplaceAllStringFunc(tpl.Source, func(m string) string {
		name := varMarker.FindStringSubmatch(m)[1]
		if v, ok := rec.Lookup(name); ok {
			return v
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			unresolved = append(unresolved, name)
		}
		return m
	})

	if strict && len(unresolved) > 0 {
		return Document{}, &MissingFieldError{Record: rec.Identity(), Fields: unresolved}
	}
	return Document{Text: text, Mode: ModeGeneric, Unresolved: unresolved}, nil
}
