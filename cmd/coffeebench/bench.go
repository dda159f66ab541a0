// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/diffeo/go-coffee/coffee"
	uuid "github.com/satori/go.uuid"
)

type benchWork struct {
	Coffees     coffee.Coffees
	Concurrency int
}

// check returns an error if bench cannot run any workers.
func (bench *benchWork) check() error {
	if bench.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", bench.Concurrency)
	}
	return nil
}

// Run calls runner from Concurrency goroutines at once, and waits for
// all of them to return.
func (bench *benchWork) Run(runner func()) {
	wg := sync.WaitGroup{}
	wg.Add(bench.Concurrency)
	for i := 0; i < bench.Concurrency; i++ {
		go func() {
			defer wg.Done()
			runner()
		}()
	}
	wg.Wait()
}

// Add creates count coffees with random names.  It returns the
// number actually created and the first error, if any.
func (bench *benchWork) Add(ctx context.Context, count int) (int, error) {
	if err := bench.check(); err != nil {
		return 0, err
	}
	numbers := make(chan int)
	go func() {
		for i := 1; i <= count; i++ {
			numbers <- i
		}
		close(numbers)
	}()
	var created int64
	var errs firstErr
	bench.Run(func() {
		for range numbers {
			name := uuid.NewV4().String()
			if _, err := bench.Coffees.Create(ctx, name); err != nil {
				errs.set(err)
				continue
			}
			atomic.AddInt64(&created, 1)
		}
	})
	return int(created), errs.get()
}

// raceResult counts the outcomes of one Race.
type raceResult struct {
	// Version is the version every worker raced from.
	Version   int
	Successes int
	Conflicts int
	Errors    int
}

// Race has every worker try to rename coffee id from its current
// version at the same time.  Exactly one should win; the rest should
// see version conflicts.  It is an error if that is not what
// happens.
func (bench *benchWork) Race(ctx context.Context, id int) (raceResult, error) {
	var result raceResult
	if err := bench.check(); err != nil {
		return result, err
	}
	current, err := bench.Coffees.Get(ctx, id)
	if err != nil {
		return result, err
	}
	result.Version = current.Version

	var (
		mutex sync.Mutex
		errs  firstErr
		ready sync.WaitGroup
		begin = make(chan struct{})
	)
	ready.Add(bench.Concurrency)
	go func() {
		ready.Wait()
		close(begin)
	}()
	bench.Run(func() {
		ready.Done()
		<-begin
		_, err := bench.Coffees.Update(ctx, id, uuid.NewV4().String(), current.Version)
		mutex.Lock()
		defer mutex.Unlock()
		switch {
		case err == nil:
			result.Successes++
		case coffee.IsConflict(err):
			result.Conflicts++
		default:
			result.Errors++
			errs.set(err)
		}
	})

	if err := errs.get(); err != nil {
		return result, err
	}
	if result.Successes != 1 {
		return result, fmt.Errorf("%d updates of coffee %d from version %d succeeded",
			result.Successes, id, current.Version)
	}
	return result, nil
}

// Clear deletes every coffee.  Coffees deleted by someone else in the
// meantime are not an error.
func (bench *benchWork) Clear(ctx context.Context) (int, error) {
	if err := bench.check(); err != nil {
		return 0, err
	}
	all, err := bench.Coffees.List(ctx)
	if err != nil {
		return 0, err
	}
	ids := make(chan int)
	go func() {
		for _, c := range all {
			ids <- c.ID
		}
		close(ids)
	}()
	var deleted int64
	var errs firstErr
	bench.Run(func() {
		for id := range ids {
			err := bench.Coffees.Delete(ctx, id)
			switch {
			case err == nil:
				atomic.AddInt64(&deleted, 1)
			case coffee.IsNotFound(err):
			default:
				errs.set(err)
			}
		}
	})
	return int(deleted), errs.get()
}

// firstErr remembers the first error reported to it from any
// goroutine.
type firstErr struct {
	once sync.Once
	err  error
}

func (e *firstErr) set(err error) {
	e.once.Do(func() { e.err = err })
}

func (e *firstErr) get() error {
	return e.err
}
