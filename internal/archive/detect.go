package archive

import (
	"fmt"
	"sort"
	"strings"
)

// Report bundles keep their nested trace archives under a reserved
// directory prefix. Both values are conventions of the recording side;
// keep them together so a format change touches nothing else.
const (
	BundlePrefix    = "data/"
	BundleZipSuffix = ".zip"
)

// TraceLogSuffix marks the line-delimited event logs inside a single
// trace archive. A sibling .network log carries resource snapshots.
const (
	TraceLogSuffix   = ".trace"
	NetworkLogSuffix = ".network"
)

// Source is one trace to be parsed. For a single-trace archive the source
// reuses the top-level reader; for a report bundle each source opens one
// nested archive. A nested entry that is not itself a valid ZIP degrades
// to a Source with Err set instead of failing the whole bundle.
type Source struct {
	// Name identifies the source: the upload name for a single trace,
	// the nested entry path for a bundle member.
	Name   string
	Reader *Reader
	Err    error
}

// Detect inspects entry names and produces the ordered list of trace
// sources. Name-pattern matching happens before any nested decompression
// so non-bundles never pay the nested-open cost.
func Detect(r *Reader, uploadName string) []Source {
	var nested []string
	for _, name := range r.List() {
		if strings.HasPrefix(name, BundlePrefix) && strings.HasSuffix(name, BundleZipSuffix) {
			nested = append(nested, name)
		}
	}

	if len(nested) == 0 {
		return []Source{{Name: uploadName, Reader: r}}
	}

	// Members stay in archive enumeration order so tab order matches the
	// container.
	sources := make([]Source, 0, len(nested))
	for _, name := range nested {
		src := Source{Name: name}
		buf, err := r.Read(name)
		if err != nil {
			src.Err = err
			sources = append(sources, src)
			continue
		}
		inner, err := Open(buf)
		if err != nil {
			src.Err = fmt.Errorf("nested entry %s: %w", name, err)
			sources = append(sources, src)
			continue
		}
		src.Reader = inner
		sources = append(sources, src)
	}
	return sources
}

// TraceLogs returns the ordinals of the event logs in a single trace
// archive, sorted. An ordinal N names a "<N>.trace" entry and optionally
// a sibling "<N>.network" entry.
func TraceLogs(r *Reader) []string {
	var ordinals []string
	for _, name := range r.List() {
		if strings.HasSuffix(name, TraceLogSuffix) {
			ordinals = append(ordinals, strings.TrimSuffix(name, TraceLogSuffix))
		}
	}
	sort.Strings(ordinals)
	return ordinals
}
