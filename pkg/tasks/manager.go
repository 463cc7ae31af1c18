// Package tasks runs background work on a bounded worker pool with three
// priority levels. Submitting the same logical task twice while the first
// is still pending returns the in-flight handle instead of queueing again.
package tasks

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/workshopai/workshop/pkg/logging"
)

// Priority orders queued tasks. Lower values run first.
type Priority int

const (
	High Priority = iota
	Normal
	Low
)

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Key identifies a logical task for deduplication. Two submissions with the
// same key while one is pending share a single execution.
type Key struct {
	Kind        string
	ProjectPath string
}

// Task is the unit of background work.
type Task func(ctx context.Context) (interface{}, error)

// Handle tracks one scheduled task and delivers its result.
type Handle struct {
	key    Key
	done   chan struct{}
	result interface{}
	err    error
}

// Wait blocks until the task finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the task completes.
func (h *Handle) Done() <-chan struct{} { return h.done }

type queuedTask struct {
	handle   *Handle
	fn       Task
	priority Priority
	seq      uint64 // FIFO order within a priority level
	index    int
}

type taskQueue []*queuedTask

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *taskQueue) Push(x interface{}) {
	t := x.(*queuedTask)
	t.index = len(*q)
	*q = append(*q, t)
}
func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Manager owns the worker pool and the priority queue.
type Manager struct {
	logger *logging.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	queue    taskQueue
	inflight map[Key]*Handle
	seq      uint64
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager starts workers goroutines draining the queue. workers below 1
// is clamped to 1.
func NewManager(workers int, logger *logging.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:   logger,
		inflight: make(map[Key]*Handle),
		ctx:      ctx,
		cancel:   cancel,
	}
	m.cond = sync.NewCond(&m.mu)
	heap.Init(&m.queue)

	m.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go m.worker()
	}
	return m
}

// Submit schedules fn under key. If a task with the same key is already
// queued or running, its handle is returned and the second return is false.
func (m *Manager) Submit(key Key, priority Priority, fn Task) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		h := &Handle{key: key, done: make(chan struct{}), err: fmt.Errorf("task manager is closed")}
		close(h.done)
		return h, false
	}
	if existing, ok := m.inflight[key]; ok {
		m.logger.Logf("tasks: deduplicated %s for %s", key.Kind, key.ProjectPath)
		return existing, false
	}

	h := &Handle{key: key, done: make(chan struct{})}
	m.inflight[key] = h
	m.seq++
	heap.Push(&m.queue, &queuedTask{handle: h, fn: fn, priority: priority, seq: m.seq})
	m.cond.Signal()
	return h, true
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		for m.queue.Len() == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed && m.queue.Len() == 0 {
			m.mu.Unlock()
			return
		}
		t := heap.Pop(&m.queue).(*queuedTask)
		m.mu.Unlock()

		m.run(t)
	}
}

func (m *Manager) run(t *queuedTask) {
	defer func() {
		if r := recover(); r != nil {
			t.handle.err = fmt.Errorf("task %s panicked: %v", t.handle.key.Kind, r)
			m.finish(t.handle)
		}
	}()

	result, err := t.fn(m.ctx)
	t.handle.result = result
	t.handle.err = err
	if err != nil {
		m.logger.LogError(err)
	}
	m.finish(t.handle)
}

func (m *Manager) finish(h *Handle) {
	m.mu.Lock()
	delete(m.inflight, h.key)
	m.mu.Unlock()
	close(h.done)
}

// Pending reports how many tasks are queued or running.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}

// Close cancels running tasks, stops accepting submissions and waits for
// the workers to drain.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.cancel()
	m.cond.Broadcast()
	m.mu.Unlock()

	m.wg.Wait()
}
