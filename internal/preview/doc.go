// Package preview coordinates the PDF preview surface with the compiler,
// the synctex engine, and the editor.
//
// The Coordinator owns at most one Session, which wraps the live Surface
// and the path of the PDF it shows. Sessions are created lazily by the
// first ShowPreview or OpenOrReveal and end when the surface is disposed,
// whether by the user closing it or by Close. The next request then
// creates a fresh session.
//
// Editor-facing commands map one to one onto Coordinator methods:
//
//	show preview   ShowPreview(source)
//	compile        Compile(ctx, source)
//	sync forward   SyncForward(ctx, source, line, column)
//	sync reverse   SyncReverse(ctx, page, x, y)
//
// Events coming back from the surface are fed to HandleSurfaceEvent.
package preview
