package trace

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tracelens/tracelens/internal/archive"
)

const tracerName = "github.com/tracelens/tracelens/internal/trace"

// Load runs the whole pipeline for one upload: archive open, trace-set
// detection, per-source parse and assembly. Only a corrupt top-level
// archive or a total absence of event logs fails the load; per-event and
// per-nested-trace anomalies are absorbed into the model.
func Load(ctx context.Context, buf []byte, uploadName string, logger zerolog.Logger) (*Model, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "trace.load")
	defer span.End()

	if uploadName == "" {
		uploadName = "trace"
	}

	reader, err := archive.Open(buf)
	if err != nil {
		return nil, err
	}

	sources := archive.Detect(reader, uploadName)
	span.SetAttributes(attribute.Int("trace.sources", len(sources)))
	logger.Debug().Int("sources", len(sources)).Str("upload", uploadName).Msg("detected trace sources")

	model := &Model{}
	failed := 0
	var firstErr error

	for _, src := range sources {
		t, err := loadSource(ctx, src, logger)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			logger.Warn().Err(err).Str("source", src.Name).Msg("trace source degraded")
			t = &Trace{SourceName: src.Name, LoadError: err.Error()}
		}
		model.traces = append(model.traces, t)
	}

	// A bundle keeps its good members; a load with no good member at all
	// is a failure, not an empty model.
	if failed == len(sources) {
		return nil, fmt.Errorf("no readable trace in %s: %w", uploadName, firstErr)
	}
	return model, nil
}

func loadSource(ctx context.Context, src archive.Source, logger zerolog.Logger) (*Trace, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "trace.parse")
	span.SetAttributes(attribute.String("trace.source", src.Name))
	defer span.End()

	if src.Err != nil {
		return nil, src.Err
	}

	ordinals := archive.TraceLogs(src.Reader)
	if len(ordinals) == 0 {
		return nil, fmt.Errorf("%w: no %s event log in %s", archive.ErrEntryNotFound, archive.TraceLogSuffix, src.Name)
	}

	asm := NewAssembler(src.Name)
	malformed := 0

	for _, ordinal := range ordinals {
		data, err := src.Reader.Read(ordinal + archive.TraceLogSuffix)
		if err != nil {
			// Listed a moment ago; treat a read failure as a degraded source.
			return nil, err
		}
		malformed += feed(asm, data)

		netName := ordinal + archive.NetworkLogSuffix
		if src.Reader.Has(netName) {
			netData, err := src.Reader.Read(netName)
			if err == nil {
				malformed += feed(asm, netData)
			} else {
				logger.Debug().Err(err).Str("entry", netName).Msg("skipping unreadable network log")
			}
		}
	}

	t := asm.Finish()
	t.Stats.MalformedLines = malformed
	t.source = src.Reader

	span.SetAttributes(
		attribute.Int("trace.actions", len(t.Actions)),
		attribute.Int("trace.malformed_lines", t.Stats.MalformedLines),
	)
	logger.Debug().
		Str("source", src.Name).
		Int("actions", len(t.Actions)).
		Int("malformed", t.Stats.MalformedLines).
		Int("open", t.Stats.OpenActions).
		Msg("assembled trace")
	return t, nil
}

// feed drains one event log into the assembler and returns the number of
// unparseable lines.
func feed(asm *Assembler, data []byte) int {
	p := NewParser(data)
	for {
		ev, ok := p.Next()
		if !ok {
			break
		}
		asm.Add(ev)
	}
	return p.Malformed()
}

// IsCorrupt reports whether err is the fatal not-an-archive failure.
func IsCorrupt(err error) bool { return errors.Is(err, archive.ErrCorruptArchive) }
