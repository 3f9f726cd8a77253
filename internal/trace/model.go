// Package trace turns recorded trace archives into a structured,
// time-ordered model: per-trace action sequences with nested network,
// console and log entries, plus anomaly counters for everything the
// recording stream got wrong.
package trace

import (
	"fmt"

	"github.com/tracelens/tracelens/internal/archive"
)

// ErrorInfo describes a failure captured by the recording.
type ErrorInfo struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	// CallID is the originating action, when known.
	CallID string `json:"callId,omitempty"`
}

// AttachmentRef points at a binary payload inside the source archive.
// Payloads are fetched lazily through Trace.OpenAttachment, never copied
// into the model.
type AttachmentRef struct {
	Name        string `json:"name"`
	SHA1        string `json:"sha1,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// NetworkEntry is one recorded network exchange. Request and response
// arrive combined on a single resource-snapshot record.
type NetworkEntry struct {
	Method      string  `json:"method"`
	URL         string  `json:"url"`
	Status      int     `json:"status"`
	ContentType string  `json:"contentType,omitempty"`
	SHA1        string  `json:"sha1,omitempty"`
	Time        float64 `json:"time"`
}

// Failed reports whether the exchange ended in an HTTP error.
func (n NetworkEntry) Failed() bool { return n.Status >= 400 }

// ConsoleEntry is one recorded console message.
type ConsoleEntry struct {
	Severity string  `json:"severity"`
	Text     string  `json:"text"`
	Time     float64 `json:"time"`
}

// IsError reports whether the entry carries error severity.
func (c ConsoleEntry) IsError() bool { return c.Severity == "error" }

// LogLine is one progress line emitted while an action ran.
type LogLine struct {
	Time    float64 `json:"time"`
	Message string  `json:"message"`
}

// Action is one recorded operation. Identity is the begin/end pairing id.
// Actions are appended in begin order and are exclusively owned by their
// Trace once assembly finishes.
type Action struct {
	CallID    string         `json:"callId"`
	Class     string         `json:"class,omitempty"`
	Method    string         `json:"method,omitempty"`
	Title     string         `json:"title,omitempty"`
	StartTime float64        `json:"startTime"`
	EndTime   float64        `json:"endTime"`
	ParentID  string         `json:"parentId,omitempty"`
	PageID    string         `json:"pageId,omitempty"`
	Params    map[string]any `json:"params,omitempty"`

	// Open means no matching end event arrived before the stream ended.
	Open bool `json:"open,omitempty"`
	// Unpaired marks an action synthesized from an end event that had no
	// matching begin. Such actions are closed with zero duration.
	Unpaired bool `json:"unpaired,omitempty"`

	Network     []NetworkEntry  `json:"network,omitempty"`
	Console     []ConsoleEntry  `json:"console,omitempty"`
	Log         []LogLine       `json:"log,omitempty"`
	Error       *ErrorInfo      `json:"error,omitempty"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// Name returns the display name: method, falling back to class, then id.
func (a *Action) Name() string {
	switch {
	case a.Method != "":
		return a.Method
	case a.Class != "":
		return a.Class
	default:
		return a.CallID
	}
}

// Duration returns the elapsed milliseconds, or 0 while the action is open.
func (a *Action) Duration() float64 {
	if a.Open {
		return 0
	}
	return a.EndTime - a.StartTime
}

// HasError reports whether the action qualifies for the errors-only view:
// its own error, a failed network exchange, or an error-severity console
// entry.
func (a *Action) HasError() bool {
	if a.Error != nil {
		return true
	}
	for _, n := range a.Network {
		if n.Failed() {
			return true
		}
	}
	for _, c := range a.Console {
		if c.IsError() {
			return true
		}
	}
	return false
}

// Bucket holds sub-events observed while no action was open. Nothing is
// ever dropped; events that cannot be attributed land here.
type Bucket struct {
	Network []NetworkEntry `json:"network,omitempty"`
	Console []ConsoleEntry `json:"console,omitempty"`
	Log     []LogLine      `json:"log,omitempty"`
}

// Size returns the number of entries held by the bucket.
func (b Bucket) Size() int { return len(b.Network) + len(b.Console) + len(b.Log) }

// Page groups the screencast frames recorded for one page.
type Page struct {
	PageID string          `json:"pageId"`
	Frames []AttachmentRef `json:"frames,omitempty"`
}

// Stats counts the recoverable anomalies absorbed during a parse. They are
// data, not errors: a model with non-zero stats is still fully usable.
type Stats struct {
	MalformedLines int `json:"malformedLines,omitempty"`
	UnknownEvents  int `json:"unknownEvents,omitempty"`
	UnpairedEnds   int `json:"unpairedEnds,omitempty"`
	OpenActions    int `json:"openActions,omitempty"`
}

// Trace is one recorded run reduced to an ordered action sequence.
type Trace struct {
	SourceName string  `json:"sourceName"`
	Title      string  `json:"title,omitempty"`
	Browser    string  `json:"browserName,omitempty"`
	Platform   string  `json:"platform,omitempty"`
	SDKVersion string  `json:"sdkVersion,omitempty"`
	WallTime   float64 `json:"wallTime,omitempty"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`

	Actions      []*Action   `json:"actions"`
	Pages        []*Page     `json:"pages,omitempty"`
	Errors       []ErrorInfo `json:"errors,omitempty"`
	Unattributed Bucket      `json:"unattributed,omitempty"`
	Stats        Stats       `json:"stats"`

	// LoadError is set on a degraded trace: a bundle member that could not
	// be opened or held no event log. Degraded traces have no actions.
	LoadError string `json:"loadError,omitempty"`

	source *archive.Reader
}

// Degraded reports whether this trace failed to load inside an otherwise
// successful bundle.
func (t *Trace) Degraded() bool { return t.LoadError != "" }

// Duration returns the run length in milliseconds.
func (t *Trace) Duration() float64 {
	if t.EndTime <= t.StartTime {
		return 0
	}
	return t.EndTime - t.StartTime
}

// FailedActions counts actions qualifying for the errors-only view.
func (t *Trace) FailedActions() int {
	n := 0
	for _, a := range t.Actions {
		if a.HasError() {
			n++
		}
	}
	return n
}

// DisplayTitle returns the metadata title, falling back to the source name.
func (t *Trace) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.SourceName
}

// OpenAttachment fetches an attachment payload from the source archive.
// Resolution is by content hash under the resources directory, falling
// back to the literal entry name.
func (t *Trace) OpenAttachment(ref AttachmentRef) ([]byte, error) {
	if t.source == nil {
		return nil, fmt.Errorf("trace %s: %w: no source archive", t.SourceName, archive.ErrEntryNotFound)
	}
	if ref.SHA1 != "" {
		if data, err := t.source.Read("resources/" + ref.SHA1); err == nil {
			return data, nil
		}
	}
	return t.source.Read(ref.Name)
}

// Model is the finished result of one upload: an ordered trace sequence.
// Immutable after build; a new upload replaces it wholesale.
type Model struct {
	traces []*Trace
}

// NewModel builds a model from already assembled traces.
func NewModel(traces ...*Trace) *Model {
	return &Model{traces: traces}
}

// Traces returns the traces in archive enumeration order.
func (m *Model) Traces() []*Trace { return m.traces }

// Trace returns the trace at index i.
func (m *Model) Trace(i int) (*Trace, error) {
	if i < 0 || i >= len(m.traces) {
		return nil, fmt.Errorf("trace index %d out of range [0,%d)", i, len(m.traces))
	}
	return m.traces[i], nil
}
