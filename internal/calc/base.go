package calc

import (
	"errors"
	"runtime"
	"sync"
)

// ErrShape is returned when matrix dimensions do not line up
var ErrShape = errors.New("calc: dimension mismatch")

// PipeLine represents a compute pipeline
type PipeLine struct {
	numPoper int
}

// Init returns a compute PipeLine running numWorkers goroutines per kernel.
// numWorkers < 1 means one worker per CPU.
func Init(numWorkers int) *PipeLine {
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}

	pl := PipeLine{
		numPoper: numWorkers,
	}

	return &pl
}

// GetNP returns the number of workers
func (p *PipeLine) GetNP() int {
	return p.numPoper
}

// run feeds indices [0, n) to numPoper copies of worker and waits for all of them
func (p *PipeLine) run(n int, worker func(order <-chan int, wg *sync.WaitGroup)) {
	if n == 0 {
		return
	}

	order := make(chan int, p.numPoper)
	var wg sync.WaitGroup

	wg.Add(n)

	for i := 0; i < p.numPoper; i++ {
		go worker(order, &wg)
	}

	for i := 0; i < n; i++ {
		order <- i
	}

	wg.Wait()
	close(order)
	return
}

/*
	Workflow:

	Init -> kernel(inputMat, ...) -> result
*/

type statistic struct {
	avg float64
	std float64
}
