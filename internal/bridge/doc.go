// Package bridge connects cloverleaf to an editor extension over stdio.
//
// Each line on the input stream is one JSON host request (showPreview,
// compile, syncForward, syncReverse, cancel, shutdown, or a relayed
// surface event). Each line written to the output stream is one JSON
// notification: cursor moves, messages, diagnostics, compile results, and
// commands for the preview surface, which the extension forwards to its
// webview.
//
// A Bridge is at once the preview.Surface factory and the editor.Editor
// handed to a preview.Coordinator, so that every effect of a request
// travels back over the same stream.
package bridge
