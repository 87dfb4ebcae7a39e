// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel splits CPU rendering into row bands and runs them on a
// fixed set of goroutines.
//
// Bands never overlap, so each one owns its rows of the colour and depth
// buffers and workers need no locking while they rasterize.
package parallel

import (
	"image"
	"runtime"
	"sync"
)

// Pool runs batches of band jobs on a fixed number of goroutines.
//
// Each worker has its own queue and steals from the others once its queue
// is empty, so a band full of near geometry does not hold up the frame.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// mu is held for reading while Run enqueues and for writing while Close
	// stops the workers, so no job is queued after the final drain.
	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool with n workers. n <= 0 means GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: n,
		queues:  make([]chan func(), n),
		done:    make(chan struct{}),
	}
	depth := max(8, n*4)
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}

	p.wg.Add(n)
	for i := range n {
		go p.loop(i)
	}
	return p
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case job := <-own:
			job()
			continue
		default:
		}

		if job := p.steal(id); job != nil {
			job()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case job := <-own:
			job()
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case job := <-p.queues[(id+i)%p.workers]:
			return job
		default:
		}
	}
	return nil
}

// Run executes jobs and returns when all of them have finished. Jobs are
// dealt round robin. On a closed pool the jobs run on the calling
// goroutine.
func (p *Pool) Run(jobs []func()) {
	if len(jobs) == 0 {
		return
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		for _, job := range jobs {
			job()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for i, job := range jobs {
		p.queues[i%p.workers] <- func() {
			defer wg.Done()
			job()
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// Close stops the workers after the queued jobs have run. It is safe to
// call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Bands splits a width x height target into at most n horizontal bands of
// near equal height, top to bottom. Every row belongs to exactly one band.
func Bands(width, height, n int) []image.Rectangle {
	if width <= 0 || height <= 0 {
		return nil
	}
	n = min(max(n, 1), height)
	bands := make([]image.Rectangle, n)
	for i := range n {
		y0 := i * height / n
		y1 := (i + 1) * height / n
		bands[i] = image.Rect(0, y0, width, y1)
	}
	return bands
}
