// Package protocol defines the JSON messages exchanged with the preview
// surface and with the host editor.
//
// Every message is a flat JSON object whose "command" member names its
// variant; the remaining members carry only that variant's fields:
//
//	{"command":"loadPdf","pdfUrl":"file:///doc/main.pdf"}
//	{"command":"scrollToPosition","page":3,"x":120.5,"y":450.25}
//	{"command":"syncPdfToTex","page":1,"x":72,"y":310}
//
// Messages sent to the surface implement SurfaceCommand and events
// received from it implement SurfaceEvent. The host side uses HostRequest
// (editor to cloverleaf) and Notification (cloverleaf to editor). Surface
// traffic relayed through the host is wrapped in a "surface" envelope.
//
// Decoding an unknown command yields ErrUnknownCommand so that callers can
// log and skip it without tearing down the connection.
package protocol
