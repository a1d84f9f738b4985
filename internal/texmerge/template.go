package texmerge

import (
	"os"
	"strings"
)

const (
	directiveHidden  = `\hiddentrue`
	directiveVisible = `\hiddenfalse`
	beginDocument    = `\begin{document}`
	beginHidden      = `\begin{hidden}`
)

// Template is the loaded document source. It is read once and never mutated;
// every record renders a fresh copy.
type Template struct {
	Path   string
	Source string
}

// LoadTemplate reads the template file and, when requireToggle is set
// (assignment mode), validates the structural contract eagerly: exactly one
// `\hiddentrue`/`\hiddenfalse` directive in the preamble and at least one
// hidden-content region in the body. A template that cannot serve every
// record is a configuration problem, so it fails before the batch starts.
func LoadTemplate(path string, requireToggle bool) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateStructureError{Path: path, Msg: "cannot read: " + err.Error()}
	}
	tpl := &Template{Path: path, Source: string(b)}

	if requireToggle {
		if _, err := findToggle(tpl.Source); err != nil {
			err.(*TemplateStructureError).Path = path
			return nil, err
		}
		if !strings.Contains(tpl.Source, beginHidden) {
			return nil, &TemplateStructureError{Path: path,
				Msg: "no " + beginHidden + " region; nothing separates solutions from questions"}
		}
	}
	return tpl, nil
}

// preamble returns the region before \begin{document}, or the whole source
// when the marker is absent.
func preamble(source string) string {
	if i := strings.Index(source, beginDocument); i >= 0 {
		return source[:i]
	}
	return source
}

// findToggle locates the single toggle directive in the preamble and returns
// its byte offset. Absent or duplicated directives are ambiguous rewrite
// targets and are rejected.
func findToggle(source string) (int, error) {
	pre := preamble(source)
	count := strings.Count(pre, directiveHidden) + strings.Count(pre, directiveVisible)
	switch {
	case count == 0:
		return 0, &TemplateStructureError{
			Msg: "no " + directiveHidden + " or " + directiveVisible + " directive in the preamble"}
	case count > 1:
		return 0, &TemplateStructureError{
			Msg: "more than one toggle directive in the preamble"}
	}
	if i := strings.Index(pre, directiveHidden); i >= 0 {
		return i, nil
	}
	return strings.Index(pre, directiveVisible), nil
}
