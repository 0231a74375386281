// Package compile runs the TeX compiler for a source document and turns its
// transcript into diagnostics.
//
// The Compiler spawns the configured engine (pdflatex by default) in the
// document's directory, streams stdout and stderr into a single buffer, and
// resolves each run to a Result. A run succeeds only when the engine exits
// with status 0 and the expected PDF exists afterwards.
//
// ParseOutput is the diagnostic extractor. It recognises three independent
// line shapes:
//
//	! Undefined control sequence.      fatal error, line from a following "l.NN"
//	./chapter.tex:12: Missing $ inserted.  file:line:message
//	LaTeX Warning: Reference `x' undefined.  any "warning:" line
//
// A line may match more than one rule; such duplicates are kept.
//
// Diagnostics from a failed run are published to a DiagnosticSink. The
// DiagnosticStore sink resolves them against the main document, keeps them
// for a fixed window, and drops them when the next run starts.
package compile
