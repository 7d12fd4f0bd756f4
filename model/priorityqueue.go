package model

import "sync"

// Item is an element that knows how to order itself against another of its kind.
type Item[T any] interface {
	Less(T) bool
}

// PriorityQueue is a thread safe min-heap. It is used to merge candle streams of
// several tickers in time order.
type PriorityQueue[T Item[T]] struct {
	sync.Mutex
	data []T
}

func NewPriorityQueue[T Item[T]](data []T) *PriorityQueue[T] {
	q := &PriorityQueue[T]{data: append([]T(nil), data...)}
	for i := (len(q.data) >> 1) - 1; i >= 0; i-- {
		q.down(i)
	}
	return q
}

func (q *PriorityQueue[T]) Push(item T) {
	q.Lock()
	defer q.Unlock()

	q.data = append(q.data, item)
	q.up(len(q.data) - 1)
}

// Pop removes the smallest element. The second value is false on an empty queue.
func (q *PriorityQueue[T]) Pop() (T, bool) {
	q.Lock()
	defer q.Unlock()

	var zero T
	if len(q.data) == 0 {
		return zero, false
	}

	top := q.data[0]
	last := len(q.data) - 1
	q.data[0] = q.data[last]
	q.data[last] = zero
	q.data = q.data[:last]
	if len(q.data) > 0 {
		q.down(0)
	}
	return top, true
}

func (q *PriorityQueue[T]) Peek() (T, bool) {
	q.Lock()
	defer q.Unlock()

	if len(q.data) == 0 {
		var zero T
		return zero, false
	}
	return q.data[0], true
}

func (q *PriorityQueue[T]) Len() int {
	q.Lock()
	defer q.Unlock()

	return len(q.data)
}

func (q *PriorityQueue[T]) down(pos int) {
	data := q.data
	length := len(data)
	halfLength := length >> 1
	item := data[pos]
	for pos < halfLength {
		left := (pos << 1) + 1
		right := left + 1
		best := left
		if right < length && data[right].Less(data[best]) {
			best = right
		}
		if !data[best].Less(item) {
			break
		}
		data[pos] = data[best]
		pos = best
	}
	data[pos] = item
}

func (q *PriorityQueue[T]) up(pos int) {
	data := q.data
	item := data[pos]
	for pos > 0 {
		parent := (pos - 1) >> 1
		current := data[parent]
		if !item.Less(current) {
			break
		}
		data[pos] = current
		pos = parent
	}
	data[pos] = item
}
