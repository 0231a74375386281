package protocol

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Encode renders m as a single-line JSON object.
func Encode(m Message) ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "command", m.Command())
	if err != nil {
		return nil, err
	}

	var fields []field
	switch v := m.(type) {
	case LoadPdf:
		fields = []field{{"pdfUrl", v.PdfURL}}
	case ScrollToPosition:
		fields = []field{{"page", v.Page}, {"x", v.X}, {"y", v.Y}}
	case Reveal, Dispose, Ready, Disposed, Cancel, Shutdown:
	case ErrorEvent:
		fields = []field{{"text", v.Text}}
	case SyncPdfToTex:
		fields = []field{{"page", v.Page}, {"x", v.X}, {"y", v.Y}}
	case ShowPreview:
		fields = []field{{"file", v.File}}
	case Compile:
		fields = []field{{"file", v.File}}
	case SyncForward:
		fields = []field{{"file", v.File}, {"line", v.Line}, {"column", v.Column}}
	case SyncReverse:
		fields = []field{{"page", v.Page}, {"x", v.X}, {"y", v.Y}}
	case RevealSource:
		fields = []field{{"file", v.File}, {"line", v.Line}, {"column", v.Column}}
	case ShowMessage:
		fields = []field{{"level", string(v.Level)}, {"text", v.Text}}
	case CompileResult:
		fields = []field{
			{"file", v.File},
			{"success", v.Success},
			{"exitCode", v.ExitCode},
			{"canceled", v.Canceled},
		}
	case Diagnostics:
		return encodeDiagnostics(out, v)
	case SurfaceEventRequest:
		return encodeNested(out, "event", v.Event)
	case SurfaceNotification:
		return encodeNested(out, "message", v.Message)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, m.Command())
	}

	for _, f := range fields {
		out, err = sjson.SetBytes(out, f.path, f.value)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type field struct {
	path  string
	value any
}

func encodeDiagnostics(out []byte, d Diagnostics) ([]byte, error) {
	out, err := sjson.SetBytes(out, "file", d.File)
	if err != nil {
		return nil, err
	}
	out, err = sjson.SetRawBytes(out, "items", []byte(`[]`))
	if err != nil {
		return nil, err
	}
	for i, item := range d.Items {
		prefix := "items." + strconv.Itoa(i) + "."
		for _, f := range []field{
			{prefix + "line", item.Line},
			{prefix + "severity", item.Severity},
			{prefix + "message", item.Message},
		} {
			out, err = sjson.SetBytes(out, f.path, f.value)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func encodeNested(out []byte, path string, inner Message) ([]byte, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, path)
	}
	raw, err := Encode(inner)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, path, raw)
}

// DecodeSurfaceEvent parses a message sent by the preview surface.
func DecodeSurfaceEvent(data []byte) (SurfaceEvent, error) {
	root, command, err := parse(data)
	if err != nil {
		return nil, err
	}
	return surfaceEventFrom(root, command)
}

// DecodeHostRequest parses a message sent by the host editor.
func DecodeHostRequest(data []byte) (HostRequest, error) {
	root, command, err := parse(data)
	if err != nil {
		return nil, err
	}

	switch command {
	case CommandShowPreview:
		file, err := requireString(root, "file")
		if err != nil {
			return nil, err
		}
		return ShowPreview{File: file}, nil

	case CommandCompile:
		file, err := requireString(root, "file")
		if err != nil {
			return nil, err
		}
		return Compile{File: file}, nil

	case CommandSyncForward:
		file, err := requireString(root, "file")
		if err != nil {
			return nil, err
		}
		line, err := requireNumber(root, "line")
		if err != nil {
			return nil, err
		}
		return SyncForward{
			File:   file,
			Line:   int(line.Int()),
			Column: int(root.Get("column").Int()),
		}, nil

	case CommandSyncReverse:
		page, x, y, err := requirePoint(root)
		if err != nil {
			return nil, err
		}
		return SyncReverse{Page: page, X: x, Y: y}, nil

	case CommandCancel:
		return Cancel{}, nil

	case CommandShutdown:
		return Shutdown{}, nil

	case CommandSurface:
		event := root.Get("event")
		if !event.IsObject() {
			return nil, fmt.Errorf("%w: event", ErrMissingField)
		}
		inner, err := DecodeSurfaceEvent([]byte(event.Raw))
		if err != nil {
			return nil, err
		}
		return SurfaceEventRequest{Event: inner}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
}

// DecodeNotification parses a message sent to the host editor.
func DecodeNotification(data []byte) (Notification, error) {
	root, command, err := parse(data)
	if err != nil {
		return nil, err
	}

	switch command {
	case CommandRevealSource:
		return RevealSource{
			File:   root.Get("file").String(),
			Line:   int(root.Get("line").Int()),
			Column: int(root.Get("column").Int()),
		}, nil

	case CommandDiagnostics:
		d := Diagnostics{File: root.Get("file").String()}
		root.Get("items").ForEach(func(_, item gjson.Result) bool {
			d.Items = append(d.Items, DiagnosticItem{
				Line:     int(item.Get("line").Int()),
				Severity: item.Get("severity").String(),
				Message:  item.Get("message").String(),
			})
			return true
		})
		return d, nil

	case CommandMessage:
		return ShowMessage{
			Level: Level(root.Get("level").String()),
			Text:  root.Get("text").String(),
		}, nil

	case CommandCompileResult:
		return CompileResult{
			File:     root.Get("file").String(),
			Success:  root.Get("success").Bool(),
			ExitCode: int(root.Get("exitCode").Int()),
			Canceled: root.Get("canceled").Bool(),
		}, nil

	case CommandSurface:
		msg := root.Get("message")
		if !msg.IsObject() {
			return nil, fmt.Errorf("%w: message", ErrMissingField)
		}
		inner, err := DecodeSurfaceCommand([]byte(msg.Raw))
		if err != nil {
			return nil, err
		}
		return SurfaceNotification{Message: inner}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
}

// DecodeSurfaceCommand parses a message addressed to the preview surface.
func DecodeSurfaceCommand(data []byte) (SurfaceCommand, error) {
	root, command, err := parse(data)
	if err != nil {
		return nil, err
	}

	switch command {
	case CommandLoadPdf:
		url, err := requireString(root, "pdfUrl")
		if err != nil {
			return nil, err
		}
		return LoadPdf{PdfURL: url}, nil

	case CommandScrollToPosition:
		page, x, y, err := requirePoint(root)
		if err != nil {
			return nil, err
		}
		return ScrollToPosition{Page: page, X: x, Y: y}, nil

	case CommandReveal:
		return Reveal{}, nil

	case CommandDispose:
		return Dispose{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
}

func surfaceEventFrom(root gjson.Result, command string) (SurfaceEvent, error) {
	switch command {
	case CommandReady:
		return Ready{}, nil

	case CommandError:
		return ErrorEvent{Text: root.Get("text").String()}, nil

	case CommandSyncPdfToTex:
		page, x, y, err := requirePoint(root)
		if err != nil {
			return nil, err
		}
		return SyncPdfToTex{Page: page, X: x, Y: y}, nil

	case CommandDisposed:
		return Disposed{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
}

func parse(data []byte) (gjson.Result, string, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, "", fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return gjson.Result{}, "", fmt.Errorf("%w: not an object", ErrMalformed)
	}
	command := root.Get("command")
	if command.Type != gjson.String {
		return gjson.Result{}, "", fmt.Errorf("%w: no command", ErrMalformed)
	}
	return root, command.String(), nil
}

func requireString(root gjson.Result, path string) (string, error) {
	v := root.Get(path)
	if v.Type != gjson.String || v.String() == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, path)
	}
	return v.String(), nil
}

func requireNumber(root gjson.Result, path string) (gjson.Result, error) {
	v := root.Get(path)
	if v.Type != gjson.Number {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrMissingField, path)
	}
	return v, nil
}

func requirePoint(root gjson.Result) (int, float64, float64, error) {
	page, err := requireNumber(root, "page")
	if err != nil {
		return 0, 0, 0, err
	}
	x, err := requireNumber(root, "x")
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := requireNumber(root, "y")
	if err != nil {
		return 0, 0, 0, err
	}
	return int(page.Int()), x.Float(), y.Float(), nil
}
