package trace

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// replay builds an event stream from an opcode slice: positive n begins
// action n, negative n ends action -n. Repeated and unmatched opcodes are
// exactly the anomalies the assembler has to absorb.
func replay(ops []int) *Trace {
	a := NewAssembler("prop.zip")
	clock := float64(0)
	for _, op := range ops {
		clock++
		if op >= 0 {
			a.Add(Event{Kind: KindActionBegin, CallID: fmt.Sprintf("c%d", op), Time: clock})
		} else {
			a.Add(Event{Kind: KindActionEnd, CallID: fmt.Sprintf("c%d", -op), Time: clock, EndTime: clock})
		}
	}
	return a.Finish()
}

func TestAssemblerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	opGen := gen.SliceOf(gen.IntRange(-8, 8))

	properties.Property("no event is lost or invented", prop.ForAll(
		func(ops []int) bool {
			begins := map[string]bool{}
			beginCount := 0
			unpairedEnds := 0
			for _, op := range ops {
				id := fmt.Sprintf("c%d", op)
				if op >= 0 {
					begins[id] = true
					beginCount++
					continue
				}
				id = fmt.Sprintf("c%d", -op)
				if begins[id] {
					delete(begins, id)
				} else {
					unpairedEnds++
				}
			}

			tr := replay(ops)
			return len(tr.Actions) == beginCount+unpairedEnds &&
				tr.Stats.UnpairedEnds == unpairedEnds
		},
		opGen,
	))

	properties.Property("closed actions never run backwards", prop.ForAll(
		func(ops []int) bool {
			tr := replay(ops)
			for _, a := range tr.Actions {
				if !a.Open && a.EndTime < a.StartTime {
					return false
				}
			}
			return true
		},
		opGen,
	))

	properties.Property("open count matches actions left open", prop.ForAll(
		func(ops []int) bool {
			tr := replay(ops)
			open := 0
			for _, a := range tr.Actions {
				if a.Open {
					open++
				}
			}
			return tr.Stats.OpenActions == open
		},
		opGen,
	))

	properties.Property("unpaired actions have zero duration", prop.ForAll(
		func(ops []int) bool {
			tr := replay(ops)
			for _, a := range tr.Actions {
				if a.Unpaired && a.Duration() != 0 {
					return false
				}
			}
			return true
		},
		opGen,
	))

	properties.TestingRun(t)
}
