package trace

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type zipEntry struct {
	name string
	data []byte
}

func makeZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	ordered := make([]zipEntry, 0, len(entries))
	for name, data := range entries {
		ordered = append(ordered, zipEntry{name, data})
	}
	return makeZipOrdered(t, ordered)
}

func makeZipOrdered(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			t.Fatalf("failed to write entry %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

var sampleLog = strings.Join([]string{
	`{"type":"context-options","browserName":"chromium","platform":"linux","title":"checkout flow"}`,
	`{"type":"before","callId":"c1","startTime":10,"class":"Frame","method":"goto","params":{"url":"https://shop/"}}`,
	`{"type":"log","callId":"c1","time":12,"message":"navigating"}`,
	`{"type":"after","callId":"c1","endTime":40}`,
	`{"type":"before","callId":"c2","startTime":50,"class":"Frame","method":"click"}`,
	`{"type":"after","callId":"c2","endTime":55,"error":{"message":"element not found"}}`,
}, "\n")

func TestLoad(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("SingleTrace", func(t *testing.T) {
		buf := makeZip(t, map[string][]byte{"0.trace": []byte(sampleLog)})

		model, err := Load(context.Background(), buf, "trace.zip", logger)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(model.Traces()) != 1 {
			t.Fatalf("got %d traces, want 1", len(model.Traces()))
		}

		tr := model.Traces()[0]
		if tr.SourceName != "trace.zip" {
			t.Errorf("SourceName = %s, want trace.zip", tr.SourceName)
		}
		if tr.Browser != "chromium" || tr.Title != "checkout flow" {
			t.Errorf("metadata = browser %s title %s, want chromium / checkout flow", tr.Browser, tr.Title)
		}
		if len(tr.Actions) != 2 {
			t.Fatalf("got %d actions, want 2", len(tr.Actions))
		}
		if tr.FailedActions() != 1 {
			t.Errorf("FailedActions() = %d, want 1", tr.FailedActions())
		}
		if len(tr.Actions[0].Log) != 1 {
			t.Errorf("first action has %d log lines, want 1", len(tr.Actions[0].Log))
		}
	})

	t.Run("GarbageBytes", func(t *testing.T) {
		_, err := Load(context.Background(), []byte("garbage"), "x.zip", logger)
		if err == nil {
			t.Fatal("Load() expected error for garbage input")
		}
		if !IsCorrupt(err) {
			t.Errorf("IsCorrupt() = false for %v, want true", err)
		}
	})

	t.Run("MalformedLineDoesNotChangeActions", func(t *testing.T) {
		withGarbage := sampleLog + "\n{broken json\n"
		buf := makeZip(t, map[string][]byte{"0.trace": []byte(withGarbage)})

		model, err := Load(context.Background(), buf, "trace.zip", logger)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		tr := model.Traces()[0]
		if len(tr.Actions) != 2 {
			t.Errorf("got %d actions, want 2 regardless of the malformed line", len(tr.Actions))
		}
		if tr.Stats.MalformedLines != 1 {
			t.Errorf("MalformedLines = %d, want 1", tr.Stats.MalformedLines)
		}
	})

	t.Run("NetworkLogMerged", func(t *testing.T) {
		netLog := `{"type":"resource-snapshot","callId":"c1","snapshot":{"request":{"method":"GET","url":"https://shop/api"},"response":{"status":200,"content":{"mimeType":"application/json"}}}}`
		buf := makeZip(t, map[string][]byte{
			"0.trace":   []byte(sampleLog),
			"0.network": []byte(netLog),
		})

		model, err := Load(context.Background(), buf, "trace.zip", logger)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		tr := model.Traces()[0]
		// By the time the network log is fed all actions are closed, so the
		// explicitly addressed entry lands in the unattributed bucket.
		total := len(tr.Unattributed.Network)
		for _, a := range tr.Actions {
			total += len(a.Network)
		}
		if total != 1 {
			t.Errorf("network entries across trace = %d, want 1", total)
		}
	})

	t.Run("BundleTwoIdenticalMembers", func(t *testing.T) {
		inner := makeZip(t, map[string][]byte{"0.trace": []byte(sampleLog)})
		buf := makeZipOrdered(t, []zipEntry{
			{"data/one.zip", inner},
			{"data/two.zip", inner},
		})

		model, err := Load(context.Background(), buf, "report.zip", logger)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		traces := model.Traces()
		if len(traces) != 2 {
			t.Fatalf("got %d traces, want 2", len(traces))
		}
		if len(traces[0].Actions) != len(traces[1].Actions) {
			t.Errorf("identical members produced %d vs %d actions", len(traces[0].Actions), len(traces[1].Actions))
		}
		if traces[0].SourceName != "data/one.zip" || traces[1].SourceName != "data/two.zip" {
			t.Errorf("source names = %s, %s", traces[0].SourceName, traces[1].SourceName)
		}
	})

	t.Run("BundleDegradedMember", func(t *testing.T) {
		inner := makeZip(t, map[string][]byte{"0.trace": []byte(sampleLog)})
		buf := makeZipOrdered(t, []zipEntry{
			{"data/bad.zip", []byte("not a zip")},
			{"data/good.zip", inner},
		})

		model, err := Load(context.Background(), buf, "report.zip", logger)
		if err != nil {
			t.Fatalf("Load() error = %v, want degraded member absorbed", err)
		}
		traces := model.Traces()
		if len(traces) != 2 {
			t.Fatalf("got %d traces, want 2", len(traces))
		}
		if !traces[0].Degraded() {
			t.Error("bad member not marked degraded")
		}
		if traces[1].Degraded() {
			t.Error("good member marked degraded")
		}
	})

	t.Run("AllMembersFail", func(t *testing.T) {
		buf := makeZip(t, map[string][]byte{
			"data/bad1.zip": []byte("nope"),
			"data/bad2.zip": []byte("also nope"),
		})

		if _, err := Load(context.Background(), buf, "report.zip", logger); err == nil {
			t.Error("Load() = nil error when every member failed, want error")
		}
	})

	t.Run("NoEventLog", func(t *testing.T) {
		buf := makeZip(t, map[string][]byte{"readme.txt": []byte("hi")})

		if _, err := Load(context.Background(), buf, "trace.zip", logger); err == nil {
			t.Error("Load() = nil error for archive without event logs, want error")
		}
	})

	t.Run("MultipleOrdinalsOneTrace", func(t *testing.T) {
		first := `{"type":"before","callId":"c1","startTime":1,"method":"goto"}` + "\n" +
			`{"type":"after","callId":"c1","endTime":2}`
		second := `{"type":"before","callId":"c2","startTime":3,"method":"click"}` + "\n" +
			`{"type":"after","callId":"c2","endTime":4}`
		buf := makeZip(t, map[string][]byte{
			"0.trace": []byte(first),
			"1.trace": []byte(second),
		})

		model, err := Load(context.Background(), buf, "trace.zip", logger)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(model.Traces()) != 1 {
			t.Fatalf("got %d traces, want 1 merged trace", len(model.Traces()))
		}
		tr := model.Traces()[0]
		if len(tr.Actions) != 2 {
			t.Errorf("got %d actions, want 2 across ordinals", len(tr.Actions))
		}
		if tr.Actions[0].CallID != "c1" || tr.Actions[1].CallID != "c2" {
			t.Errorf("ordinal order lost: %s, %s", tr.Actions[0].CallID, tr.Actions[1].CallID)
		}
	})
}

func TestOpenAttachment(t *testing.T) {
	logger := zerolog.Nop()
	log := `{"type":"before","callId":"c1","startTime":1,"method":"screenshot"}` + "\n" +
		`{"type":"after","callId":"c1","endTime":2,"attachments":[{"name":"shot.png","sha1":"abc","contentType":"image/png"}]}`
	buf := makeZip(t, map[string][]byte{
		"0.trace":       []byte(log),
		"resources/abc": {0xDE, 0xAD},
	})

	model, err := Load(context.Background(), buf, "trace.zip", logger)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tr := model.Traces()[0]
	if len(tr.Actions[0].Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(tr.Actions[0].Attachments))
	}

	data, err := tr.OpenAttachment(tr.Actions[0].Attachments[0])
	if err != nil {
		t.Fatalf("OpenAttachment() error = %v", err)
	}
	if !bytes.Equal(data, []byte{0xDE, 0xAD}) {
		t.Errorf("OpenAttachment() = %v, want the resource payload", data)
	}
}

func TestModelIndex(t *testing.T) {
	logger := zerolog.Nop()
	buf := makeZip(t, map[string][]byte{"0.trace": []byte(sampleLog)})
	model, err := Load(context.Background(), buf, "trace.zip", logger)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := model.Trace(0); err != nil {
		t.Errorf("Trace(0) error = %v", err)
	}
	if _, err := model.Trace(1); err == nil {
		t.Error("Trace(1) = nil error, want out of range")
	}
	if _, err := model.Trace(-1); err == nil {
		t.Error("Trace(-1) = nil error, want out of range")
	}
}
