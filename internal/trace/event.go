package trace

import "encoding/json"

// Kind tags the event variants of the recording protocol. Anything the
// decoder does not recognize, or recognizes but cannot validate, becomes
// KindUnknown rather than an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindActionBegin
	KindActionEnd
	KindLog
	KindConsole
	KindNetwork
	KindError
	KindMetadata
	KindScreencast
)

// Wire discriminator values. These are conventions of the recording side.
const (
	typeBegin      = "before"
	typeEnd        = "after"
	typeLog        = "log"
	typeConsole    = "console"
	typeNetwork    = "resource-snapshot"
	typeError      = "error"
	typeMetadata   = "context-options"
	typeScreencast = "screencast-frame"
)

// Event is one decoded record of the event log. It is transient: the
// assembler consumes it immediately and never retains it.
type Event struct {
	Kind   Kind
	CallID string
	// Time is the record's monotonic timestamp in milliseconds from run
	// start, whichever field the variant carries.
	Time float64

	// Action begin fields.
	Class    string
	Method   string
	Title    string
	Params   map[string]any
	ParentID string
	PageID   string

	// Action end fields.
	EndTime     float64
	Error       *ErrorInfo
	Attachments []AttachmentRef

	// Log / console fields.
	Message  string
	Severity string

	// Network fields.
	Net NetworkEntry

	// Metadata fields.
	Meta Metadata

	// Screencast fields.
	Frame AttachmentRef
}

// Metadata carries trace-level summary fields. Later metadata events
// overwrite earlier ones field by field.
type Metadata struct {
	Browser    string
	Platform   string
	SDKVersion string
	WallTime   float64
	Monotonic  float64
	Title      string
}

// wireEvent is the superset of all record shapes; one line decodes into
// it and validate() decides the variant. Unknown JSON fields are ignored.
type wireEvent struct {
	Type      string         `json:"type"`
	CallID    string         `json:"callId"`
	StartTime float64        `json:"startTime"`
	EndTime   float64        `json:"endTime"`
	Time      float64        `json:"time"`
	Class     string         `json:"class"`
	Method    string         `json:"method"`
	Title     string         `json:"title"`
	Params    map[string]any `json:"params"`
	ParentID  string         `json:"parentId"`
	PageID    string         `json:"pageId"`

	Error       *wireError       `json:"error"`
	Attachments []wireAttachment `json:"attachments"`

	Message     string `json:"message"`
	Stack       string `json:"stack"`
	MessageType string `json:"messageType"`
	Text        string `json:"text"`

	Snapshot *wireSnapshot `json:"snapshot"`

	BrowserName   string  `json:"browserName"`
	Platform      string  `json:"platform"`
	SDKVersion    string  `json:"sdkVersion"`
	WallTime      float64 `json:"wallTime"`
	MonotonicTime float64 `json:"monotonicTime"`

	SHA1      string  `json:"sha1"`
	Timestamp float64 `json:"timestamp"`
}

type wireError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

type wireAttachment struct {
	Name        string `json:"name"`
	SHA1        string `json:"sha1"`
	ContentType string `json:"contentType"`
}

type wireSnapshot struct {
	MonotonicTime float64 `json:"_monotonicTime"`
	PageRef       string  `json:"pageref"`
	Request       struct {
		Method string `json:"method"`
		URL    string `json:"url"`
	} `json:"request"`
	Response struct {
		Status  int `json:"status"`
		Content struct {
			MimeType string `json:"mimeType"`
			SHA1     string `json:"_sha1"`
		} `json:"content"`
	} `json:"response"`
}

// decodeEvent parses one log line. The bool result is false only for lines
// that are not valid JSON objects; a recognized type missing its required
// fields degrades to KindUnknown instead.
func decodeEvent(line []byte) (Event, bool) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return Event{}, false
	}
	return w.validate(), true
}

func (w *wireEvent) validate() Event {
	switch w.Type {
	case typeBegin:
		if w.CallID == "" {
			return Event{Kind: KindUnknown}
		}
		return Event{
			Kind:     KindActionBegin,
			CallID:   w.CallID,
			Time:     w.StartTime,
			Class:    w.Class,
			Method:   w.Method,
			Title:    w.Title,
			Params:   w.Params,
			ParentID: w.ParentID,
			PageID:   w.PageID,
		}

	case typeEnd:
		if w.CallID == "" {
			return Event{Kind: KindUnknown}
		}
		ev := Event{Kind: KindActionEnd, CallID: w.CallID, Time: w.EndTime, EndTime: w.EndTime}
		if w.Error != nil && w.Error.Message != "" {
			ev.Error = &ErrorInfo{Message: w.Error.Message, Stack: w.Error.Stack, CallID: w.CallID}
		}
		for _, att := range w.Attachments {
			ev.Attachments = append(ev.Attachments, AttachmentRef{
				Name:        att.Name,
				SHA1:        att.SHA1,
				ContentType: att.ContentType,
			})
		}
		return ev

	case typeLog:
		if w.Message == "" {
			return Event{Kind: KindUnknown}
		}
		return Event{Kind: KindLog, CallID: w.CallID, Time: w.Time, Message: w.Message}

	case typeConsole:
		if w.Text == "" {
			return Event{Kind: KindUnknown}
		}
		sev := w.MessageType
		if sev == "" {
			sev = "log"
		}
		return Event{Kind: KindConsole, CallID: w.CallID, Time: w.Time, Message: w.Text, Severity: sev}

	case typeNetwork:
		if w.Snapshot == nil || w.Snapshot.Request.URL == "" {
			return Event{Kind: KindUnknown}
		}
		return Event{
			Kind:   KindNetwork,
			CallID: w.CallID,
			PageID: w.Snapshot.PageRef,
			Time:   w.Snapshot.MonotonicTime,
			Net: NetworkEntry{
				Method:      w.Snapshot.Request.Method,
				URL:         w.Snapshot.Request.URL,
				Status:      w.Snapshot.Response.Status,
				ContentType: w.Snapshot.Response.Content.MimeType,
				SHA1:        w.Snapshot.Response.Content.SHA1,
				Time:        w.Snapshot.MonotonicTime,
			},
		}

	case typeError:
		if w.Message == "" {
			return Event{Kind: KindUnknown}
		}
		return Event{
			Kind:   KindError,
			CallID: w.CallID,
			Time:   w.Time,
			Error:  &ErrorInfo{Message: w.Message, Stack: w.Stack, CallID: w.CallID},
		}

	case typeMetadata:
		return Event{
			Kind: KindMetadata,
			Time: w.MonotonicTime,
			Meta: Metadata{
				Browser:    w.BrowserName,
				Platform:   w.Platform,
				SDKVersion: w.SDKVersion,
				WallTime:   w.WallTime,
				Monotonic:  w.MonotonicTime,
				Title:      w.Title,
			},
		}

	case typeScreencast:
		if w.SHA1 == "" || w.PageID == "" {
			return Event{Kind: KindUnknown}
		}
		return Event{
			Kind:   KindScreencast,
			PageID: w.PageID,
			Time:   w.Timestamp,
			Frame:  AttachmentRef{Name: "resources/" + w.SHA1, SHA1: w.SHA1, ContentType: "image/jpeg"},
		}

	default:
		return Event{Kind: KindUnknown}
	}
}
