package synctex

import "fmt"

// SourcePosition is a location in a source file. Line and Column are
// 1-based; Column is 0 when the tool gave no precise column.
type SourcePosition struct {
	File   string
	Line   int
	Column int
}

// EditorPosition converts to the 0-based line and column used by editors,
// clamping both at 0.
func (p SourcePosition) EditorPosition() (line, column int) {
	return max(0, p.Line-1), max(0, p.Column-1)
}

// String formats the position as file:line:column.
func (p SourcePosition) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// RenderedPosition is a point on a PDF page. Page is 1-based; X and Y are
// in TeX big points measured from the top-left corner of the page.
type RenderedPosition struct {
	Page int
	X    float64
	Y    float64
}

// String formats the position as page:x:y, the form synctex edit expects.
func (p RenderedPosition) String() string {
	return fmt.Sprintf("%d:%g:%g", p.Page, p.X, p.Y)
}
