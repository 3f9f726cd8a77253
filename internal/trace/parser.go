package trace

import "bytes"

// Parser yields events from one line-delimited JSON log in file order.
// Single forward pass, no reordering, not restartable. Lines that fail to
// decode are counted and skipped; the stream never fails as a whole.
type Parser struct {
	data      []byte
	malformed int
	unknown   int
}

// Log lines can carry large embedded payloads, but a line past this limit
// is treated as malformed rather than decoded. Scanning continues on the
// next line either way.
const maxLineSize = 16 * 1024 * 1024

// NewParser creates a parser over the raw bytes of an event log.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Next returns the next event. The second result is false once the log is
// exhausted. Unknown-kind events are yielded (the assembler counts them);
// unparseable and oversized lines are skipped here.
func (p *Parser) Next() (Event, bool) {
	for len(p.data) > 0 {
		line := p.data
		if i := bytes.IndexByte(p.data, '\n'); i >= 0 {
			line = p.data[:i]
			p.data = p.data[i+1:]
		} else {
			p.data = nil
		}

		if len(line) > maxLineSize {
			p.malformed++
			continue
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		ev, ok := decodeEvent(line)
		if !ok {
			p.malformed++
			continue
		}
		if ev.Kind == KindUnknown {
			p.unknown++
		}
		return ev, true
	}
	return Event{}, false
}

// Malformed returns the number of lines skipped as unparseable so far.
func (p *Parser) Malformed() int { return p.malformed }

// Unknown returns the number of events downgraded to the unknown kind.
func (p *Parser) Unknown() int { return p.unknown }
