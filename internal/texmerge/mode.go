// Package texmerge renders a LaTeX template for one record and controls the
// paper/solution toggle embedded in the rendered source.
//
// Rendering is pure text substitution: `\VAR{Name}` markers are replaced by
// record field values, nothing in the template is interpreted or executed.
package texmerge

// Mode selects which rendering of the template a compilation produces.
type Mode string

const (
	// ModeSolution shows hidden (solution-only) content.
	ModeSolution Mode = "solution"
	// ModePaper suppresses hidden content, producing the question paper.
	ModePaper Mode = "paper"
	// ModeGeneric is plain mail-merge: no toggle, one rendering per record.
	ModeGeneric Mode = "generic"
)

// Stem returns the filename stem configured for the mode, or "" for generic
// output.
func (m Mode) Stem(solStem, paperStem string) string {
	switch m {
	case ModeSolution:
		return solStem
	case ModePaper:
		return paperStem
	default:
		return ""
	}
}
