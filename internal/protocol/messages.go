package protocol

// Command names.
const (
	CommandLoadPdf          = "loadPdf"
	CommandScrollToPosition = "scrollToPosition"
	CommandReveal           = "reveal"
	CommandDispose          = "dispose"

	CommandReady        = "ready"
	CommandError        = "error"
	CommandSyncPdfToTex = "syncPdfToTex"
	CommandDisposed     = "disposed"

	CommandShowPreview = "showPreview"
	CommandCompile     = "compile"
	CommandSyncForward = "syncForward"
	CommandSyncReverse = "syncReverse"
	CommandCancel      = "cancel"
	CommandShutdown    = "shutdown"
	CommandSurface     = "surface"

	CommandRevealSource  = "revealSource"
	CommandDiagnostics   = "diagnostics"
	CommandMessage       = "message"
	CommandCompileResult = "compileResult"
)

// Message is any protocol message.
type Message interface {
	// Command returns the variant tag.
	Command() string
}

// SurfaceCommand is a message sent to the preview surface.
type SurfaceCommand interface {
	Message
	surfaceCommand()
}

// SurfaceEvent is a message received from the preview surface.
type SurfaceEvent interface {
	Message
	surfaceEvent()
}

// HostRequest is a message received from the host editor.
type HostRequest interface {
	Message
	hostRequest()
}

// Notification is a message sent to the host editor.
type Notification interface {
	Message
	notification()
}

// LoadPdf tells the surface to display the PDF at PdfURL.
type LoadPdf struct {
	PdfURL string
}

// ScrollToPosition tells the surface to scroll to a point and mark it.
type ScrollToPosition struct {
	Page int
	X    float64
	Y    float64
}

// Reveal asks the surface to become visible beside the editor.
type Reveal struct{}

// Dispose asks the surface to close.
type Dispose struct{}

func (LoadPdf) Command() string          { return CommandLoadPdf }
func (ScrollToPosition) Command() string { return CommandScrollToPosition }
func (Reveal) Command() string           { return CommandReveal }
func (Dispose) Command() string          { return CommandDispose }

func (LoadPdf) surfaceCommand()          {}
func (ScrollToPosition) surfaceCommand() {}
func (Reveal) surfaceCommand()           {}
func (Dispose) surfaceCommand()          {}

// Ready reports that the surface finished loading.
type Ready struct{}

// ErrorEvent reports a surface-side failure, such as an unreadable PDF.
type ErrorEvent struct {
	Text string
}

// SyncPdfToTex reports a modifier-click on a page at (X, Y).
type SyncPdfToTex struct {
	Page int
	X    float64
	Y    float64
}

// Disposed reports that the user closed the surface.
type Disposed struct{}

func (Ready) Command() string        { return CommandReady }
func (ErrorEvent) Command() string   { return CommandError }
func (SyncPdfToTex) Command() string { return CommandSyncPdfToTex }
func (Disposed) Command() string     { return CommandDisposed }

func (Ready) surfaceEvent()        {}
func (ErrorEvent) surfaceEvent()   {}
func (SyncPdfToTex) surfaceEvent() {}
func (Disposed) surfaceEvent()     {}

// ShowPreview opens or reveals the preview for File's PDF.
type ShowPreview struct {
	File string
}

// Compile compiles File.
type Compile struct {
	File string
}

// SyncForward scrolls the preview to a 1-based source line and column.
type SyncForward struct {
	File   string
	Line   int
	Column int
}

// SyncReverse moves the editor to the source of a point in the current PDF.
type SyncReverse struct {
	Page int
	X    float64
	Y    float64
}

// Cancel stops the running compile.
type Cancel struct{}

// Shutdown ends the session.
type Shutdown struct{}

// SurfaceEventRequest relays a surface event through the host.
type SurfaceEventRequest struct {
	Event SurfaceEvent
}

func (ShowPreview) Command() string         { return CommandShowPreview }
func (Compile) Command() string             { return CommandCompile }
func (SyncForward) Command() string         { return CommandSyncForward }
func (SyncReverse) Command() string         { return CommandSyncReverse }
func (Cancel) Command() string              { return CommandCancel }
func (Shutdown) Command() string            { return CommandShutdown }
func (SurfaceEventRequest) Command() string { return CommandSurface }

func (ShowPreview) hostRequest()         {}
func (Compile) hostRequest()             {}
func (SyncForward) hostRequest()         {}
func (SyncReverse) hostRequest()         {}
func (Cancel) hostRequest()              {}
func (Shutdown) hostRequest()            {}
func (SurfaceEventRequest) hostRequest() {}

// RevealSource asks the editor to open File with the cursor at a 0-based
// Line and Column.
type RevealSource struct {
	File   string
	Line   int
	Column int
}

// DiagnosticItem is one entry of a Diagnostics notification. Line is
// 0-based.
type DiagnosticItem struct {
	Line     int
	Severity string
	Message  string
}

// Diagnostics replaces the annotations shown for File. An empty Items
// clears them.
type Diagnostics struct {
	File  string
	Items []DiagnosticItem
}

// Level is the severity of a Message notification.
type Level string

// Message levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ShowMessage displays Text to the user.
type ShowMessage struct {
	Level Level
	Text  string
}

// CompileResult reports the outcome of a compile.
type CompileResult struct {
	File     string
	Success  bool
	ExitCode int
	Canceled bool
}

// SurfaceNotification relays a surface command through the host.
type SurfaceNotification struct {
	Message SurfaceCommand
}

func (RevealSource) Command() string        { return CommandRevealSource }
func (Diagnostics) Command() string         { return CommandDiagnostics }
func (ShowMessage) Command() string         { return CommandMessage }
func (CompileResult) Command() string       { return CommandCompileResult }
func (SurfaceNotification) Command() string { return CommandSurface }

func (RevealSource) notification()        {}
func (Diagnostics) notification()         {}
func (ShowMessage) notification()         {}
func (CompileResult) notification()       {}
func (SurfaceNotification) notification() {}
