package synth

import "container/heap"

// voiceHeap orders voices by a sample key: start for the pending queue,
// stop for the disposal queue.
type voiceHeap struct {
	items []*voice
	key   func(*voice) int64
}

func (h *voiceHeap) Len() int           { return len(h.items) }
func (h *voiceHeap) Less(i, j int) bool { return h.key(h.items[i]) < h.key(h.items[j]) }
func (h *voiceHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *voiceHeap) Push(x any)         { h.items = append(h.items, x.(*voice)) }

func (h *voiceHeap) Pop() any {
	old := h.items
	n := len(old)
	v := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return v
}

func (h *voiceHeap) push(v *voice) { heap.Push(h, v) }
func (h *voiceHeap) pop() *voice   { return heap.Pop(h).(*voice) }

// peek returns the smallest key, or false when empty.
func (h *voiceHeap) peek() (int64, bool) {
	if len(h.items) == 0 {
		return 0, false
	}
	return h.key(h.items[0]), true
}

func newPendingHeap() *voiceHeap {
	return &voiceHeap{key: func(v *voice) int64 { return v.start }}
}

func newDisposalHeap() *voiceHeap {
	return &voiceHeap{key: func(v *voice) int64 { return v.stop }}
}
