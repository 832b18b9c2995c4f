package grove

import "sync"

// task splits data in contiguous chunks, one goroutine per worker, and waits
// for all of them
func task[T any](workersCount int, data []T, fn func(data T)) {
	workersCount = max(1, workersCount)
	dataSize := len(data)
	if dataSize == 0 {
		return
	}
	workersCount = min(workersCount, dataSize)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	var wg sync.WaitGroup
	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}
