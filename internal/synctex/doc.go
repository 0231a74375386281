// Package synctex maps positions between a TeX source document and the PDF
// compiled from it by querying the synctex command-line tool.
//
// Forward mapping (source to PDF) runs
//
//	synctex view -i "<line>:<column>:<source>" -o "<pdf>"
//
// and reads the Page, x and y fields of the reply. Reverse mapping (PDF to
// source) runs
//
//	synctex edit -o "<page>:<x>:<y>:<pdf>"
//
// and reads Input, Line and Column. Each query spawns one process; there is
// no persistent connection to the tool.
//
// A reply that lacks a required field means the position has no
// counterpart in the other document. That is reported as a nil position
// with a nil error, never as a failure. Only a tool that cannot be launched
// at all produces an error.
//
// Positions round-trip lossily: forward mapping lands on a box, not a
// character, so mapping the result back returns the original line but
// usually not the original column.
package synctex
