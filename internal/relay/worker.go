package relay

import (
	"context"
	"log"
)

// Worker drains a FIFO queue of jobs with a single consumer, so at most one
// fan-out is in flight at a time and delivery-record writes stay ordered
// per job.
type Worker struct {
	jobs    chan Job
	deliver func(Job) int
}

// NewWorker creates a worker with a bounded queue. deliver returns the
// number of recipients reached; the worker only logs it.
func NewWorker(queueSize int, deliver func(Job) int) *Worker {
	return &Worker{
		jobs:    make(chan Job, queueSize),
		deliver: deliver,
	}
}

// Submit enqueues a job. Returns false if the queue is full; the job is
// dropped and logged rather than blocking the inbound path.
func (w *Worker) Submit(j Job) bool {
	select {
	case w.jobs <- j:
		return true
	default:
		log.Printf("relay: queue full, dropping job from user %d", j.Origin())
		return false
	}
}

// Run consumes jobs until the context is cancelled. Cancellation stops
// pulling new jobs; an in-flight job runs to completion. A failing job never
// takes down the loop.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			w.process(j)
		}
	}
}

func (w *Worker) process(j Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("relay: job from user %d panicked: %v", j.Origin(), r)
		}
	}()
	n := w.deliver(j)
	log.Printf("relay: delivered job from user %d to %d recipients", j.Origin(), n)
}
