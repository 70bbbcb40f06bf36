package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mngv7/elevator-control-system/internal/floor"
)

func floors(tokens ...string) []floor.Floor {
	out := make([]floor.Floor, len(tokens))
	for i, tok := range tokens {
		out[i] = floor.MustParse(tok)
	}
	return out
}

func drain(q *ScanQueue) []string {
	var out []string
	for {
		f, ok := q.Pop()
		if !ok {
			break
		}
		out = append(out, f.String())
	}
	return out
}

// TestScanOrdering is the worked example from spec §8 scenario 7 under
// this package's run-based SCAN variant (see queue.go's grounding
// comment): the car idles at 1 and three calls arrive in quick
// succession. This implementation's deterministic answer is 3,4,8,9 (the
// surviving U run absorbs every later U-tagged stop that doesn't open a
// new run) then 10,2 (the D run), which differs from the illustrative
// example in spec §8 — permitted there for implementers documenting their
// own SCAN variant.
func TestScanOrdering(t *testing.T) {
	var q ScanQueue
	q.Enqueue(floor.MustParse("3"), floor.MustParse("8"))  // dir U: 3, 8
	q.Enqueue(floor.MustParse("10"), floor.MustParse("2")) // dir D: 10, 2
	q.Enqueue(floor.MustParse("4"), floor.MustParse("9"))  // dir U: 4, 9

	assert.Equal(t, []string{"3", "4", "8", "9", "10", "2"}, drain(&q))
}

func TestScanQueueRunInvariant(t *testing.T) {
	var q ScanQueue
	q.Enqueue(floor.MustParse("1"), floor.MustParse("5"))
	q.Enqueue(floor.MustParse("9"), floor.MustParse("2"))
	q.Enqueue(floor.MustParse("3"), floor.MustParse("7"))
	assert.LessOrEqual(t, q.RunCount(), 3)
}

func TestScanQueueCoalescesDuplicates(t *testing.T) {
	var q ScanQueue
	q.Insert(floor.DirUp, floor.MustParse("5"))
	q.Insert(floor.DirUp, floor.MustParse("5"))
	assert.Equal(t, 1, q.Len())
}

func TestScanQueueDescendingRun(t *testing.T) {
	var q ScanQueue
	q.Insert(floor.DirDown, floor.MustParse("10"))
	q.Insert(floor.DirDown, floor.MustParse("2"))
	q.Insert(floor.DirDown, floor.MustParse("6"))
	assert.Equal(t, []string{"10", "6", "2"}, drain(&q))
}

func TestScanQueuePeekDoesNotRemove(t *testing.T) {
	var q ScanQueue
	q.Insert(floor.DirUp, floor.MustParse("4"))
	f, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, "4", f.String())
	assert.Equal(t, 1, q.Len())
}
