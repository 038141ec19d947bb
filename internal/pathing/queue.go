package pathing

import "time"

// Queue is a FIFO of path requests with at most one entry per requester ID.
// Not safe for concurrent use; Service guards it with its own mutex.
type Queue struct {
	items []*Request
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends r. A queued request with the same ID is dropped first, so
// the newest request for an ID wins and the stale one never completes.
// Returns the dropped request, if any.
func (q *Queue) Enqueue(r *Request) *Request {
	stale := q.Remove(r.ID)
	if r.enqueued.IsZero() {
		r.enqueued = time.Now()
	}
	q.items = append(q.items, r)
	return stale
}

// Dequeue removes and returns the front request, or nil if the queue is empty.
func (q *Queue) Dequeue() *Request {
	if len(q.items) == 0 {
		return nil
	}
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r
}

// Peek returns the front request without removing it.
func (q *Queue) Peek() *Request {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Contains returns the queued request with the given ID.
func (q *Queue) Contains(id string) (*Request, bool) {
	if i := q.find(id); i >= 0 {
		return q.items[i], true
	}
	return nil, false
}

// Remove drops the queued request with the given ID and returns it.
func (q *Queue) Remove(id string) *Request {
	i := q.find(id)
	if i < 0 {
		return nil
	}
	r := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return r
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) find(id string) int {
	for i, r := range q.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}
