package geo

import "fmt"

// HeapItem is an element of Heap. CompareTo returns a positive value when the
// receiver has higher priority than other. The heap keeps the item's index in sync.
type HeapItem[T any] interface {
	comparable
	CompareTo(other T) int
	HeapIndex() int
	SetHeapIndex(i int)
}

// Heap is a fixed-capacity binary max-heap used as the A* open set.
type Heap[T HeapItem[T]] struct {
	items []T
	count int
}

// NewHeap creates a heap able to hold capacity items.
func NewHeap[T HeapItem[T]](capacity int) *Heap[T] {
	return &Heap[T]{items: make([]T, capacity)}
}

// Len returns the number of items in the heap.
func (h *Heap[T]) Len() int { return h.count }

// Cap returns the heap capacity.
func (h *Heap[T]) Cap() int { return len(h.items) }

// Add inserts item and sifts it up.
func (h *Heap[T]) Add(item T) error {
	if h.count >= len(h.items) {
		return fmt.Errorf("adding item %d of %d: %w", h.count+1, len(h.items), ErrHeapFull)
	}
	item.SetHeapIndex(h.count)
	h.items[h.count] = item
	h.count++
	h.sortUp(item)
	return nil
}

// RemoveFirst pops the highest-priority item. Panics on an empty heap.
func (h *Heap[T]) RemoveFirst() T {
	if h.count == 0 {
		panic("geo: RemoveFirst on empty heap")
	}
	first := h.items[0]
	h.count--
	last := h.items[h.count]
	var zero T
	h.items[h.count] = zero
	first.SetHeapIndex(-1)
	if h.count > 0 {
		h.items[0] = last
		last.SetHeapIndex(0)
		h.sortDown(last)
	}
	return first
}

// Contains reports whether item is in the heap, in O(1).
func (h *Heap[T]) Contains(item T) bool {
	i := item.HeapIndex()
	return i >= 0 && i < h.count && h.items[i] == item
}

// UpdateItem restores order after item's priority increased (cost decreased).
func (h *Heap[T]) UpdateItem(item T) {
	h.sortUp(item)
}

func (h *Heap[T]) sortUp(item T) {
	for {
		i := item.HeapIndex()
		if i == 0 {
			return
		}
		parent := h.items[(i-1)/2]
		if item.CompareTo(parent) <= 0 {
			return
		}
		h.swap(item, parent)
	}
}

func (h *Heap[T]) sortDown(item T) {
	for {
		left := item.HeapIndex()*2 + 1
		right := left + 1
		if left >= h.count {
			return
		}
		swap := left
		if right < h.count && h.items[left].CompareTo(h.items[right]) < 0 {
			swap = right
		}
		if item.CompareTo(h.items[swap]) >= 0 {
			return
		}
		h.swap(item, h.items[swap])
	}
}

func (h *Heap[T]) swap(a, b T) {
	ia, ib := a.HeapIndex(), b.HeapIndex()
	h.items[ia] = b
	h.items[ib] = a
	a.SetHeapIndex(ib)
	b.SetHeapIndex(ia)
}
