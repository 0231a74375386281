package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput_FatalError(t *testing.T) {
	diags := ParseOutput("! Undefined control sequence.\nl.12 \\foo\n")

	require.Len(t, diags, 1)
	assert.Equal(t, Diagnostic{
		Line:     12,
		Message:  "Undefined control sequence.",
		Severity: SeverityError,
	}, diags[0])
}

func TestParseOutput_FatalErrorWithoutLine(t *testing.T) {
	diags := ParseOutput("! Emergency stop.\n<*> main.tex\n")

	require.Len(t, diags, 1)
	assert.Equal(t, 0, diags[0].Line)
	assert.Equal(t, "Emergency stop.", diags[0].Message)
}

func TestParseOutput_FileLine(t *testing.T) {
	diags := ParseOutput("mydoc.tex:45: Undefined command")

	require.Len(t, diags, 1)
	assert.Equal(t, "mydoc.tex", diags[0].File)
	assert.Equal(t, 45, diags[0].Line)
	assert.Equal(t, "Undefined command", diags[0].Message)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestParseOutput_Warning(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"latex", "LaTeX Warning: Reference undefined", "Reference undefined"},
		{"lowercase", "package foo warning: something odd  ", "something odd"},
		{"uppercase", "WARNING: loud", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := ParseOutput(tt.input)
			require.Len(t, diags, 1)
			assert.Equal(t, SeverityWarning, diags[0].Severity)
			assert.Equal(t, tt.want, diags[0].Message)
			assert.Empty(t, diags[0].File)
			assert.Zero(t, diags[0].Line)
		})
	}
}

func TestParseOutput_NoMatches(t *testing.T) {
	tests := []string{
		"",
		"This is pdfTeX, Version 3.141592653",
		"!",
		"!   ",
		"LaTeX Warning:   ",
		"Output written on main.pdf (1 page).",
	}

	for _, input := range tests {
		assert.Empty(t, ParseOutput(input), "input %q", input)
	}
}

func TestParseOutput_DuplicatesKept(t *testing.T) {
	// One line matching both file:line and warning rules.
	diags := ParseOutput("./sec.tex:7: LaTeX Warning: Citation undefined")

	require.Len(t, diags, 2)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "./sec.tex", diags[0].File)
	assert.Equal(t, 7, diags[0].Line)
	assert.Equal(t, SeverityWarning, diags[1].Severity)
	assert.Equal(t, "Citation undefined", diags[1].Message)
}

func TestParseOutput_Order(t *testing.T) {
	output := "LaTeX Warning: first\r\n" +
		"! Missing $ inserted.\r\n" +
		"l.3 x^2\r\n" +
		"chap.tex:9: Something else\r\n"

	diags := ParseOutput(output)

	require.Len(t, diags, 3)
	assert.Equal(t, "first", diags[0].Message)
	assert.Equal(t, "Missing $ inserted.", diags[1].Message)
	assert.Equal(t, 3, diags[1].Line)
	assert.Equal(t, "chap.tex", diags[2].File)
	assert.Equal(t, "Something else", diags[2].Message)
}

func TestParseOutput_Deterministic(t *testing.T) {
	output := "! Undefined control sequence.\nl.12 \\foo\nmain.tex:4: bad\nLaTeX Warning: x\n"

	assert.Equal(t, ParseOutput(output), ParseOutput(output))
}

func TestDiagnostic_EditorLine(t *testing.T) {
	assert.Equal(t, 0, Diagnostic{Line: 0}.EditorLine())
	assert.Equal(t, 0, Diagnostic{Line: 1}.EditorLine())
	assert.Equal(t, 11, Diagnostic{Line: 12}.EditorLine())
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{File: "a.tex", Line: 3, Message: "oops", Severity: SeverityError}
	assert.Equal(t, "a.tex:3: error: oops", d.String())

	d = Diagnostic{Message: "hmm", Severity: SeverityWarning}
	assert.Equal(t, "<main>: warning: hmm", d.String())
}
