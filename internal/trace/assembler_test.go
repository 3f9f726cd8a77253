package trace

import (
	"testing"
)

func begin(callID string, start float64) Event {
	return Event{Kind: KindActionBegin, CallID: callID, Time: start, Method: "click"}
}

func end(callID string, endTime float64) Event {
	return Event{Kind: KindActionEnd, CallID: callID, Time: endTime, EndTime: endTime}
}

func TestAssembler(t *testing.T) {
	t.Run("BeginEndPair", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(begin("c1", 10))
		a.Add(end("c1", 30))
		tr := a.Finish()

		if len(tr.Actions) != 1 {
			t.Fatalf("got %d actions, want 1", len(tr.Actions))
		}
		act := tr.Actions[0]
		if act.Open || act.Unpaired {
			t.Errorf("action state open=%v unpaired=%v, want closed paired", act.Open, act.Unpaired)
		}
		if act.Duration() != 20 {
			t.Errorf("Duration() = %v, want 20", act.Duration())
		}
		if tr.Stats.OpenActions != 0 || tr.Stats.UnpairedEnds != 0 {
			t.Errorf("stats = %+v, want clean", tr.Stats)
		}
	})

	t.Run("BeginOrderPreserved", func(t *testing.T) {
		// c1 finishes after c2; order must still follow begins.
		a := NewAssembler("trace.zip")
		a.Add(begin("c1", 10))
		a.Add(begin("c2", 15))
		a.Add(end("c2", 20))
		a.Add(end("c1", 40))
		tr := a.Finish()

		if len(tr.Actions) != 2 {
			t.Fatalf("got %d actions, want 2", len(tr.Actions))
		}
		if tr.Actions[0].CallID != "c1" || tr.Actions[1].CallID != "c2" {
			t.Errorf("order = [%s, %s], want [c1, c2]", tr.Actions[0].CallID, tr.Actions[1].CallID)
		}
	})

	t.Run("UnmatchedEnd", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(end("ghost", 50))
		tr := a.Finish()

		if len(tr.Actions) != 1 {
			t.Fatalf("got %d actions, want 1 synthesized", len(tr.Actions))
		}
		act := tr.Actions[0]
		if !act.Unpaired {
			t.Error("Unpaired = false, want true")
		}
		if act.Duration() != 0 {
			t.Errorf("Duration() = %v, want 0", act.Duration())
		}
		if tr.Stats.UnpairedEnds != 1 {
			t.Errorf("UnpairedEnds = %d, want 1", tr.Stats.UnpairedEnds)
		}
	})

	t.Run("OpenAtEOF", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(begin("c1", 10))
		tr := a.Finish()

		if !tr.Actions[0].Open {
			t.Error("Open = false, want true for action without end")
		}
		if tr.Actions[0].Duration() != 0 {
			t.Errorf("Duration() = %v for open action, want 0", tr.Actions[0].Duration())
		}
		if tr.Stats.OpenActions != 1 {
			t.Errorf("OpenActions = %d, want 1", tr.Stats.OpenActions)
		}
	})

	t.Run("EndBeforeStartClamped", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(begin("c1", 100))
		a.Add(end("c1", 90))
		tr := a.Finish()

		if d := tr.Actions[0].Duration(); d != 0 {
			t.Errorf("Duration() = %v for backwards timestamps, want 0", d)
		}
	})

	t.Run("SubEventExplicitIDWins", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(begin("outer", 10))
		a.Add(begin("inner", 12))
		a.Add(Event{Kind: KindLog, CallID: "outer", Time: 13, Message: "for outer"})
		a.Add(Event{Kind: KindLog, Time: 14, Message: "for top of stack"})
		a.Add(end("inner", 20))
		a.Add(end("outer", 30))
		tr := a.Finish()

		outer, inner := tr.Actions[0], tr.Actions[1]
		if len(outer.Log) != 1 || outer.Log[0].Message != "for outer" {
			t.Errorf("outer logs = %v, want the explicitly addressed line", outer.Log)
		}
		if len(inner.Log) != 1 || inner.Log[0].Message != "for top of stack" {
			t.Errorf("inner logs = %v, want the stack-attributed line", inner.Log)
		}
	})

	t.Run("UnattributedBucket", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(Event{Kind: KindConsole, Time: 1, Message: "early", Severity: "log"})
		a.Add(Event{Kind: KindNetwork, Net: NetworkEntry{Method: "GET", URL: "https://x"}})
		tr := a.Finish()

		if tr.Unattributed.Size() != 2 {
			t.Errorf("Unattributed.Size() = %d, want 2", tr.Unattributed.Size())
		}
		if len(tr.Actions) != 0 {
			t.Errorf("got %d actions, want 0", len(tr.Actions))
		}
	})

	t.Run("SubEventAfterActionClosed", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(begin("c1", 10))
		a.Add(end("c1", 20))
		a.Add(Event{Kind: KindLog, CallID: "c1", Time: 25, Message: "late"})
		tr := a.Finish()

		// Closed actions no longer receive sub-events.
		if len(tr.Actions[0].Log) != 0 {
			t.Errorf("closed action received %d log lines, want 0", len(tr.Actions[0].Log))
		}
		if len(tr.Unattributed.Log) != 1 {
			t.Errorf("Unattributed.Log = %d entries, want 1", len(tr.Unattributed.Log))
		}
	})

	t.Run("ErrorAttachedOnce", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(begin("c1", 10))
		a.Add(Event{Kind: KindError, CallID: "c1", Error: &ErrorInfo{Message: "first"}})
		a.Add(Event{Kind: KindError, CallID: "c1", Error: &ErrorInfo{Message: "second"}})
		a.Add(end("c1", 20))
		tr := a.Finish()

		if tr.Actions[0].Error == nil || tr.Actions[0].Error.Message != "first" {
			t.Errorf("action error = %+v, want first", tr.Actions[0].Error)
		}
		// The second error is still kept at trace level.
		if len(tr.Errors) != 1 || tr.Errors[0].Message != "second" {
			t.Errorf("trace errors = %+v, want [second]", tr.Errors)
		}
	})

	t.Run("MetadataLastWriteWins", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(Event{Kind: KindMetadata, Meta: Metadata{Browser: "chromium", Platform: "linux"}})
		a.Add(Event{Kind: KindMetadata, Meta: Metadata{Browser: "firefox", Title: "my test"}})
		tr := a.Finish()

		if tr.Browser != "firefox" {
			t.Errorf("Browser = %s, want firefox", tr.Browser)
		}
		if tr.Platform != "linux" {
			t.Errorf("Platform = %s, want linux (not overwritten by empty field)", tr.Platform)
		}
		if tr.Title != "my test" {
			t.Errorf("Title = %s, want my test", tr.Title)
		}
	})

	t.Run("ScreencastGroupedByPage", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(Event{Kind: KindScreencast, PageID: "p1", Frame: AttachmentRef{SHA1: "a1"}})
		a.Add(Event{Kind: KindScreencast, PageID: "p2", Frame: AttachmentRef{SHA1: "b1"}})
		a.Add(Event{Kind: KindScreencast, PageID: "p1", Frame: AttachmentRef{SHA1: "a2"}})
		tr := a.Finish()

		if len(tr.Pages) != 2 {
			t.Fatalf("got %d pages, want 2", len(tr.Pages))
		}
		if tr.Pages[0].PageID != "p1" || len(tr.Pages[0].Frames) != 2 {
			t.Errorf("page p1 = %+v, want 2 frames", tr.Pages[0])
		}
	})

	t.Run("UnknownEventsCounted", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(Event{Kind: KindUnknown})
		a.Add(Event{Kind: KindUnknown})
		tr := a.Finish()

		if tr.Stats.UnknownEvents != 2 {
			t.Errorf("UnknownEvents = %d, want 2", tr.Stats.UnknownEvents)
		}
	})

	t.Run("TimeBounds", func(t *testing.T) {
		a := NewAssembler("trace.zip")
		a.Add(begin("c1", 100))
		a.Add(begin("c2", 50))
		a.Add(end("c1", 300))
		a.Add(end("c2", 200))
		tr := a.Finish()

		if tr.StartTime != 50 {
			t.Errorf("StartTime = %v, want 50", tr.StartTime)
		}
		if tr.EndTime != 300 {
			t.Errorf("EndTime = %v, want 300", tr.EndTime)
		}
		if tr.Duration() != 250 {
			t.Errorf("Duration() = %v, want 250", tr.Duration())
		}
	})
}
