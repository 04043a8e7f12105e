package scheduler

import (
	"container/heap"
	"sync"

	"github.com/AdwayB/dtqs/pkg/broker"
	"github.com/AdwayB/dtqs/pkg/types"
)

// ScheduledTask pairs a broker delivery with its decoded message. It lives
// in the heap between consume and execute; whoever polls it owns the
// delivery and must settle it.
type ScheduledTask struct {
	Priority int
	Delivery broker.Delivery
	Message  *types.TaskMessage

	seq uint64
}

// Scheduler buffers deliveries and releases them highest priority first.
// Equal priorities come out in arrival order, so one run always dispatches
// a given backlog the same way.
type Scheduler struct {
	mu   sync.Mutex
	heap taskHeap
	next uint64
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Offer adds a task. Never blocks beyond the internal lock, never rejects.
func (s *Scheduler) Offer(task *ScheduledTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.seq = s.next
	s.next++
	heap.Push(&s.heap, task)
}

// Poll removes and returns the highest-priority task, or nil when the
// scheduler is empty.
func (s *Scheduler) Poll() *ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heap) == 0 {
		return nil
	}
	return heap.Pop(&s.heap).(*ScheduledTask)
}

// Len reports the number of buffered tasks
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

type taskHeap []*ScheduledTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*ScheduledTask)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}
