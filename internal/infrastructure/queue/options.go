package queue

import "time"

type Option func(*MemoryQueue)

func Workers(n int) Option {
	return func(q *MemoryQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func ProcessTimeout(d time.Duration) Option {
	return func(q *MemoryQueue) {
		if d > 0 {
			q.processTimeout = d
		}
	}
}
