package detector

import (
	"slices"

	"github.com/wharflab/docksift/internal/resolve"
)

// Queue is the argument deque a detector consumes from the front.
type Queue struct {
	items []*resolve.Resolution
	head  int
}

// NewQueue returns a queue over a copy of args.
func NewQueue(args []*resolve.Resolution) *Queue {
	return &Queue{items: slices.Clone(args)}
}

// Len returns the number of arguments left.
func (q *Queue) Len() int { return len(q.items) - q.head }

// Peek returns the front argument, or nil when the queue is empty.
func (q *Queue) Peek() *resolve.Resolution {
	if q.Len() == 0 {
		return nil
	}
	return q.items[q.head]
}

// Pop removes and returns the front argument, or nil when the queue is
// empty.
func (q *Queue) Pop() *resolve.Resolution {
	r := q.Peek()
	if r != nil {
		q.head++
	}
	return r
}

// Push puts r back at the front.
func (q *Queue) Push(r *resolve.Resolution) {
	if q.head > 0 && q.items[q.head-1] == r {
		q.head--
		return
	}
	// Never write into the backing array: a saved state may still share it.
	q.items = append([]*resolve.Resolution{r}, q.items[q.head:]...)
	q.head = 0
}

// Items returns the remaining arguments in order.
func (q *Queue) Items() []*resolve.Resolution {
	return slices.Clone(q.items[q.head:])
}

type queueState struct {
	items []*resolve.Resolution
	head  int
}

func (q *Queue) save() queueState { return queueState{q.items, q.head} }

func (q *Queue) restore(s queueState) { q.items, q.head = s.items, s.head }
