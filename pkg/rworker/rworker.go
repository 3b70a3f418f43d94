// Package rworker runs jobs on goroutines bounded by a shared rate channel.
package rworker

import "sync"

// Job schedules fn on its own goroutine. The rate channel caps concurrency;
// the first error is published to errCh, later ones are dropped.
func Job(wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate <- struct{}{}
		if err := fn(); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
		<-rate
	}()
}
