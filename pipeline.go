package brushwork

import "sync"

func task[T any](workersCount int, data []T, fn func(data T)) {
	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start, end := workerID*chunkSize, min((workerID+1)*chunkSize, dataSize)
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(start, end)
	}
	wg.Wait()
}

// mapTask is task with one output per input, in input order.
func mapTask[T, R any](workersCount int, data []T, fn func(data T) R) []R {
	out := make([]R, len(data))
	indices := make([]int, len(data))
	for i := range indices {
		indices[i] = i
	}
	task(workersCount, indices, func(i int) {
		out[i] = fn(data[i])
	})
	return out
}
