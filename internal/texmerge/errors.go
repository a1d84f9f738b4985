package texmerge

import (
	"fmt"
	"strings"
)

// TemplateStructureError reports a template that violates the structural
// contract for assignment output: the preamble toggle directive is missing
// or duplicated, or no hidden-content region exists.
type TemplateStructureError struct {
	Path string
	Msg  string
}

func (e *TemplateStructureError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("template %s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("template: %s", e.Msg)
}

// MissingFieldError reports `\VAR{...}` markers that no record field
// matches. Fatal per record in generic mode; assignment mode lets markers
// pass through unresolved.
type MissingFieldError struct {
	Record string
	Fields []string
}

func (e *MissingFieldError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("record %s: no field for placeholder(s) %s",
		e.Record, strings.Join(e.Fields, ", "))
}
