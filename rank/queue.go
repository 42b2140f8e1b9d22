package rank

import "github.com/hupe1980/sqlgo/model"

// resultQueue is a bounded heap that keeps the K best-scored candidates.
// The worst kept candidate sits at the root, so a full queue rejects or
// replaces in O(log K) without sorting the whole candidate set.
type resultQueue struct {
	capacity int
	items    []model.RankedExample
}

func newResultQueue(capacity int) *resultQueue {
	initial := capacity
	if initial > 16 {
		initial = 16
	}
	return &resultQueue{
		capacity: capacity,
		items:    make([]model.RankedExample, 0, initial),
	}
}

// worse reports whether a ranks below b. Score ties break toward the
// lexically smaller example id, so selection output stays deterministic.
func worse(a, b model.RankedExample) bool {
	if a.FinalScore != b.FinalScore {
		return a.FinalScore < b.FinalScore
	}
	return a.ID > b.ID
}

// push inserts the item, evicting the worst kept candidate when full.
func (q *resultQueue) push(item model.RankedExample) {
	if q.capacity <= 0 {
		return
	}

	if len(q.items) < q.capacity {
		q.items = append(q.items, item)
		q.siftUp(len(q.items) - 1)
		return
	}

	// Full: only replace the root if the new item ranks above it.
	if worse(q.items[0], item) {
		q.items[0] = item
		q.siftDown(0)
	}
}

func (q *resultQueue) len() int {
	return len(q.items)
}

// drain empties the queue into a best-first slice.
func (q *resultQueue) drain() []model.RankedExample {
	out := make([]model.RankedExample, len(q.items))
	for i := len(out) - 1; i >= 0; i-- {
		item, _ := q.pop()
		out[i] = item
	}
	return out
}

// pop removes and returns the worst kept candidate.
func (q *resultQueue) pop() (model.RankedExample, bool) {
	n := len(q.items)
	if n == 0 {
		return model.RankedExample{}, false
	}

	item := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]

	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return item, true
}

func (q *resultQueue) less(i, j int) bool {
	return worse(q.items[i], q.items[j])
}

func (q *resultQueue) swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *resultQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

func (q *resultQueue) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		right := left + 1
		if right < n && q.less(right, left) {
			child = right
		}
		if !q.less(child, i) {
			break
		}
		q.swap(i, child)
		i = child
	}
}
