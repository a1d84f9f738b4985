package texmerge

import "strings"

// SetMode returns a copy of the document with the preamble toggle rewritten
// for the given mode: ModePaper hides solution content, ModeSolution shows
// it. The mode travels with the returned document; the input is never
// mutated, so iterations share no state.
//
// ModeGeneric is a no-op: generic mail-merge documents carry no toggle.
func SetMode(doc Document, mode Mode) (Document, error) {
	if mode == ModeGeneric {
		doc.Mode = ModeGeneric
		return doc, nil
	}

	offset, err := findToggle(doc.Text)
	if err != nil {
		return Document{}, err
	}

	current := directiveVisible
	if strings.HasPrefix(doc.Text[offset:], directiveHidden) {
		current = directiveHidden
	}
	want := directiveVisible
	if mode == ModePaper {
		want = directiveHidden
	}

	doc.Text = doc.Text[:offset] + want + doc.Text[offset+len(current):]
	doc.Mode = mode
	return doc, nil
}
