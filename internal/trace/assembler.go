package trace

// Assembler folds an event stream into a Trace. It keeps an open-action
// set keyed by pairing id plus a stack ordered by begin time, so nested
// actions receive their children's sub-events. Nothing at this layer is
// fatal: every anomaly is recorded as data on the Trace.
type Assembler struct {
	trace *Trace
	open  map[string]*Action
	stack []*Action
	pages map[string]*Page
}

// NewAssembler starts assembly of one trace source.
func NewAssembler(sourceName string) *Assembler {
	return &Assembler{
		trace: &Trace{SourceName: sourceName},
		open:  make(map[string]*Action),
		pages: make(map[string]*Page),
	}
}

// Add consumes one event. Events must arrive in file order.
func (a *Assembler) Add(ev Event) {
	switch ev.Kind {
	case KindActionBegin:
		a.begin(ev)
	case KindActionEnd:
		a.end(ev)
	case KindLog:
		if act := a.target(ev.CallID); act != nil {
			act.Log = append(act.Log, LogLine{Time: ev.Time, Message: ev.Message})
		} else {
			a.trace.Unattributed.Log = append(a.trace.Unattributed.Log, LogLine{Time: ev.Time, Message: ev.Message})
		}
	case KindConsole:
		entry := ConsoleEntry{Severity: ev.Severity, Text: ev.Message, Time: ev.Time}
		if act := a.target(ev.CallID); act != nil {
			act.Console = append(act.Console, entry)
		} else {
			a.trace.Unattributed.Console = append(a.trace.Unattributed.Console, entry)
		}
	case KindNetwork:
		if act := a.target(ev.CallID); act != nil {
			act.Network = append(act.Network, ev.Net)
		} else {
			a.trace.Unattributed.Network = append(a.trace.Unattributed.Network, ev.Net)
		}
	case KindError:
		if act := a.target(ev.CallID); act != nil && act.Error == nil {
			info := *ev.Error
			info.CallID = act.CallID
			act.Error = &info
		} else {
			a.trace.Errors = append(a.trace.Errors, *ev.Error)
		}
	case KindMetadata:
		a.metadata(ev.Meta)
	case KindScreencast:
		page, ok := a.pages[ev.PageID]
		if !ok {
			page = &Page{PageID: ev.PageID}
			a.pages[ev.PageID] = page
			a.trace.Pages = append(a.trace.Pages, page)
		}
		page.Frames = append(page.Frames, ev.Frame)
	case KindUnknown:
		a.trace.Stats.UnknownEvents++
	}
}

func (a *Assembler) begin(ev Event) {
	act := &Action{
		CallID:    ev.CallID,
		Class:     ev.Class,
		Method:    ev.Method,
		Title:     ev.Title,
		StartTime: ev.Time,
		ParentID:  ev.ParentID,
		PageID:    ev.PageID,
		Params:    ev.Params,
		Open:      true,
	}

	// Append immediately so trace order reflects begin order, not
	// completion order.
	a.trace.Actions = append(a.trace.Actions, act)
	a.open[ev.CallID] = act
	a.stack = append(a.stack, act)

	if a.trace.StartTime == 0 || ev.Time < a.trace.StartTime {
		a.trace.StartTime = ev.Time
	}
}

func (a *Assembler) end(ev Event) {
	act, ok := a.open[ev.CallID]
	if !ok {
		// End with no matching begin: stream truncation or log corruption.
		// Keep the event visible as a zero-duration anomalous action.
		a.trace.Stats.UnpairedEnds++
		a.trace.Actions = append(a.trace.Actions, &Action{
			CallID:    ev.CallID,
			StartTime: ev.EndTime,
			EndTime:   ev.EndTime,
			Unpaired:  true,
			Error:     ev.Error,
		})
		a.bumpEnd(ev.EndTime)
		return
	}

	act.EndTime = ev.EndTime
	if act.EndTime < act.StartTime {
		act.EndTime = act.StartTime
	}
	act.Open = false
	if ev.Error != nil {
		act.Error = ev.Error
	}
	act.Attachments = append(act.Attachments, ev.Attachments...)

	delete(a.open, ev.CallID)
	a.unstack(act)
	a.bumpEnd(act.EndTime)
}

// target resolves the action a sub-event belongs to: an explicit pairing
// id wins when it names an open action, otherwise the most recently
// opened still-open action.
func (a *Assembler) target(callID string) *Action {
	if callID != "" {
		if act, ok := a.open[callID]; ok {
			return act
		}
	}
	if len(a.stack) > 0 {
		return a.stack[len(a.stack)-1]
	}
	return nil
}

// unstack removes a closed action. Interleaved ends mean it is not always
// the top entry.
func (a *Assembler) unstack(act *Action) {
	for i := len(a.stack) - 1; i >= 0; i-- {
		if a.stack[i] == act {
			a.stack = append(a.stack[:i], a.stack[i+1:]...)
			return
		}
	}
}

func (a *Assembler) bumpEnd(t float64) {
	if t > a.trace.EndTime {
		a.trace.EndTime = t
	}
}

// metadata merges trace-level summary fields, last write wins per field.
func (a *Assembler) metadata(m Metadata) {
	t := a.trace
	if m.Browser != "" {
		t.Browser = m.Browser
	}
	if m.Platform != "" {
		t.Platform = m.Platform
	}
	if m.SDKVersion != "" {
		t.SDKVersion = m.SDKVersion
	}
	if m.WallTime != 0 {
		t.WallTime = m.WallTime
	}
	if m.Title != "" {
		t.Title = m.Title
	}
}

// Finish seals the trace. Actions still open stay open; that is a
// reportable state, not an error. The count scans flags rather than the
// open map: a duplicated pairing id overwrites its map entry but both
// actions exist.
func (a *Assembler) Finish() *Trace {
	for _, act := range a.trace.Actions {
		if act.Open {
			a.trace.Stats.OpenActions++
		}
	}
	return a.trace
}
