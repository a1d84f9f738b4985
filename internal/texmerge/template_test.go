package texmerge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAssignmentTemplate = `\documentclass{article}
\usepackage{comment}
\newcommand*{\VAR}[1]{}
\newif\ifhidden
\hiddenfalse
\ifhidden
    \excludecomment{hidden}
\else
    \includecomment{hidden}
\fi
\begin{document}
Question for \VAR{FullName}.
\begin{hidden}
Solution goes here.
\end{hidden}
\end{document}
`

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.tex")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTemplate_ValidAssignment(t *testing.T) {
	tpl, err := LoadTemplate(writeTemplate(t, validAssignmentTemplate), true)
	require.NoError(t, err)
	assert.Equal(t, validAssignmentTemplate, tpl.Source)
}

func TestLoadTemplate_ToggleValidation(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"no toggle directive", `\documentclass{article}
\begin{document}
\begin{hidden}x\end{hidden}
\end{document}`},
		{"duplicated toggle directive", `\documentclass{article}
\hiddenfalse
\hiddentrue
\begin{document}
\begin{hidden}x\end{hidden}
\end{document}`},
		{"toggle only inside body", `\documentclass{article}
\begin{document}
\hiddenfalse
\begin{hidden}x\end{hidden}
\end{document}`},
		{"no hidden region", `\documentclass{article}
\hiddenfalse
\begin{document}
nothing to hide
\end{document}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTemplate(writeTemplate(t, tt.source), true)
			var tse *TemplateStructureError
			assert.ErrorAs(t, err, &tse)
		})
	}
}

func TestLoadTemplate_GenericSkipsToggleValidation(t *testing.T) {
	src := `\documentclass{article}
\begin{document}
Dear \VAR{name},
\end{document}`
	_, err := LoadTemplate(writeTemplate(t, src), false)
	require.NoError(t, err)
}

func TestLoadTemplate_MissingFile(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "nope.tex"), false)
	var tse *TemplateStructureError
	assert.ErrorAs(t, err, &tse)
}
