// Package controller implements the dispatch engine of spec §4.E: car
// registry, per-car SCAN stop queue, admission control, and the dispatch
// rule driven by observed car status.
//
// Grounding note on the SCAN queue: original_source/controller.c's
// add_call_request walks a single linked list comparing only against the
// immediately-following node, which (a) is not actually per-car and (b)
// calls atoi() directly on the floor token, silently breaking on the "B"
// basement prefix. Spec §9's open question defers the exact SCAN variant
// to the implementer ("document and pass the exact sequence their variant
// predicts"), so this rewrite keeps the *intent* — classical SCAN,
// U-asc/D-desc/U-asc, insert a same-direction stop into the run that
// already carries its direction, otherwise open a new run at the tail —
// expressed as explicit runs instead of a linear list walk. See
// queue_test.go for the worked example and DESIGN.md for the decision.
package controller

import (
	"github.com/mngv7/elevator-control-system/internal/floor"
)

// run is a maximal contiguous group of stops sharing one travel direction,
// kept sorted ascending (Dir == DirUp) or descending (Dir == DirDown).
type run struct {
	dir   floor.Direction
	stops []floor.Floor
}

// ScanQueue is one car's ordered stop queue, decomposed into at most three
// runs (spec §3, P5): U-asc, D-desc, U-asc.
type ScanQueue struct {
	runs []run
}

// Len returns the total number of pending stops across all runs.
func (q *ScanQueue) Len() int {
	n := 0
	for _, r := range q.runs {
		n += len(r.stops)
	}
	return n
}

// RunCount reports how many runs currently exist, for P5 verification.
func (q *ScanQueue) RunCount() int { return len(q.runs) }

// Peek returns the head stop (next to dispatch) without removing it.
func (q *ScanQueue) Peek() (floor.Floor, bool) {
	if len(q.runs) == 0 || len(q.runs[0].stops) == 0 {
		return floor.Floor{}, false
	}
	return q.runs[0].stops[0], true
}

// Pop removes and returns the head stop, dropping any run left empty.
func (q *ScanQueue) Pop() (floor.Floor, bool) {
	f, ok := q.Peek()
	if !ok {
		return floor.Floor{}, false
	}
	q.runs[0].stops = q.runs[0].stops[1:]
	if len(q.runs[0].stops) == 0 {
		q.runs = q.runs[1:]
	}
	return f, true
}

// contains reports whether (d, f) is already queued anywhere (spec §4.E:
// "Duplicate (direction,floor) entries are coalesced").
func (q *ScanQueue) contains(d floor.Direction, f floor.Floor) bool {
	for _, r := range q.runs {
		if r.dir != d {
			continue
		}
		for _, s := range r.stops {
			if s.Equal(f) {
				return true
			}
		}
	}
	return false
}

// Insert adds stop f traveling in direction d, maintaining the run
// invariant. Duplicate (d, f) pairs are silently coalesced.
func (q *ScanQueue) Insert(d floor.Direction, f floor.Floor) {
	if d == floor.DirSame {
		return // same-floor calls never reach here (admission rejects them)
	}
	if q.contains(d, f) {
		return
	}

	for i := len(q.runs) - 1; i >= 0; i-- {
		if q.runs[i].dir != d {
			continue
		}
		q.runs[i].stops = insertSorted(q.runs[i].stops, f, d)
		return
	}

	q.runs = append(q.runs, run{dir: d, stops: []floor.Floor{f}})
}

// insertSorted inserts f into stops, keeping ascending order for DirUp and
// descending order for DirDown.
func insertSorted(stops []floor.Floor, f floor.Floor, d floor.Direction) []floor.Floor {
	pos := len(stops)
	for i, s := range stops {
		if (d == floor.DirUp && f.Less(s)) || (d == floor.DirDown && s.Less(f)) {
			pos = i
			break
		}
	}
	stops = append(stops, floor.Floor{})
	copy(stops[pos+1:], stops[pos:])
	stops[pos] = f
	return stops
}

// Enqueue implements spec §4.E's "Queue insertion (SCAN)": the call
// (src,dst) implies direction d; both stops are inserted in order, src
// then dst, each tagged d.
func (q *ScanQueue) Enqueue(src, dst floor.Floor) {
	d := floor.GetDirection(src, dst)
	q.Insert(d, src)
	q.Insert(d, dst)
}
