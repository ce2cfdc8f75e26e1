// Package timer schedules background tasks (gauge refreshes, idle sweeps)
// off a single heap-driven loop.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration // 0 = one-shot
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*Task)
	task.index = n
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

type Manager struct {
	queue  taskQueue
	mutex  sync.Mutex
	nextID int64
	stop   chan struct{}
	once   sync.Once
}

func NewManager() *Manager {
	m := &Manager{
		queue:  make(taskQueue, 0),
		nextID: 1,
		stop:   make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.process()
	return m
}

// AddTimer schedules callback after delay; a non-zero interval reschedules
// it forever. Returns the task id for RemoveTimer.
func (m *Manager) AddTimer(delay, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	return task.ID
}

func (m *Manager) RemoveTimer(taskID int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.ID == taskID {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Manager) process() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, task := range m.due(time.Now()) {
				go task.Callback()
			}
		case <-m.stop:
			return
		}
	}
}

// due pops every task whose deadline has passed, requeueing periodic ones.
func (m *Manager) due(now time.Time) []*Task {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var ready []*Task
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&m.queue)
		ready = append(ready, task)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		}
	}
	return ready
}
