package chunker

import "sync"

// runBatch processes segments through fn concurrently, bounded to maxWorkers
// in flight at once, and returns results in the same order as segments. It
// is the Simple execution path's bounded worker primitive, per spec.md §4.8.
func runBatch(segments []string, fn ChunkFunc, maxWorkers int) ([]string, error) {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	out := make([]string, len(segments))
	errs := make([]error, len(segments))

	sem := make(chan struct{}, maxWorkers)

	var wg sync.WaitGroup

	for i, seg := range segments {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, seg string) {
			defer wg.Done()
			defer func() { <-sem }()

			r, err := fn(seg)
			out[i] = r
			errs[i] = err
		}(i, seg)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}
