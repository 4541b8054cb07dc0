package chunker

import "sync"

// job is one unit of work submitted to a pool, carrying its index so Run
// can return results in submission order regardless of completion order,
// and the per-call results channel to report back on.
type job struct {
	index     int
	segment   string
	fn        ChunkFunc
	resultsCh chan<- result
}

type result struct {
	index int
	text  string
	err   error
}

// pool is a persistent goroutine pool that survives across Run calls, used
// by the Advanced execution path per spec.md §4.8. Workers share one job
// channel; Resize grows by spawning more worker goroutines and shrinks by
// closing the stop channel of the most recently added workers.
type pool struct {
	jobs chan job

	mu      sync.Mutex
	stopChs []chan struct{}
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = 1
	}

	p := &pool{jobs: make(chan job, workers*2)}
	p.Resize(workers)

	return p
}

// Resize adjusts the number of live worker goroutines to n.
func (p *pool) Resize(n int) {
	if n < 1 {
		n = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.stopChs) < n {
		stop := make(chan struct{})
		p.stopChs = append(p.stopChs, stop)

		go p.worker(stop)
	}

	for len(p.stopChs) > n {
		last := len(p.stopChs) - 1
		close(p.stopChs[last])
		p.stopChs = p.stopChs[:last]
	}
}

// Workers reports the current live worker count.
func (p *pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.stopChs)
}

func (p *pool) worker(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}

			text, err := j.fn(j.segment)
			j.resultsCh <- result{index: j.index, text: text, err: err}
		}
	}
}

// Run submits segments to the pool and blocks until every result is
// collected, returning outputs in the same order as segments. On a pool with
// no workers Run blocks forever, so callers must ensure Workers() > 0 first,
// per the Advanced-execution fallback-to-Simple rule in spec.md §4.8.
func (p *pool) Run(segments []string, fn ChunkFunc) ([]string, error) {
	n := len(segments)
	if n == 0 {
		return nil, nil
	}

	resultsCh := make(chan result, n)

	for i, seg := range segments {
		p.jobs <- job{index: i, segment: seg, fn: fn, resultsCh: resultsCh}
	}

	out := make([]string, n)

	var firstErr error

	for range n {
		r := <-resultsCh
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}

		out[r.index] = r.text
	}

	return out, firstErr
}

// Shutdown stops every worker goroutine.
func (p *pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, stop := range p.stopChs {
		close(stop)
	}

	p.stopChs = nil
}
