package compile

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// fileLinePattern matches file:line: message (-file-line-error style).
	fileLinePattern = regexp.MustCompile(`^(.+):(\d+):\s*(.+)$`)

	// texLinePattern matches the "l.<n>" context line TeX prints after a
	// fatal error.
	texLinePattern = regexp.MustCompile(`^l\.(\d+)`)

	// warningPattern matches any "warning:" marker, in any case.
	warningPattern = regexp.MustCompile(`(?i)warning:\s*(.+)$`)
)

// ParseOutput extracts diagnostics from the complete transcript of one run.
// Diagnostics appear in the order their lines appear. Malformed input is
// never an error; lines that match no rule contribute nothing.
func ParseOutput(output string) []Diagnostic {
	var diags []Diagnostic

	lines := strings.Split(output, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, "!") {
			if msg := strings.TrimSpace(line[1:]); msg != "" {
				d := Diagnostic{Message: msg, Severity: SeverityError}
				if i+1 < len(lines) {
					if m := texLinePattern.FindStringSubmatch(lines[i+1]); m != nil {
						d.Line = atoi(m[1])
					}
				}
				diags = append(diags, d)
			}
		}

		if m := fileLinePattern.FindStringSubmatch(line); m != nil {
			diags = append(diags, Diagnostic{
				File:     m[1],
				Line:     atoi(m[2]),
				Message:  m[3],
				Severity: SeverityError,
			})
		}

		if m := warningPattern.FindStringSubmatch(line); m != nil {
			if msg := strings.TrimSpace(m[1]); msg != "" {
				diags = append(diags, Diagnostic{Message: msg, Severity: SeverityWarning})
			}
		}
	}

	return diags
}

// atoi parses a run of digits already validated by a pattern. Values that
// overflow int become 0 (unknown line).
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
