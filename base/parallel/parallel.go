// Copyright 2023 teasel Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parallel runs independent jobs over a fixed pool of workers.
package parallel

import (
	"sync"

	"github.com/juju/errors"
	"github.com/teasel-io/teasel/base"
	"modernc.org/mathutil"
)

const queueSize = 1024

// Parallel runs nJobs jobs over nWorkers workers. The worker function
// receives the worker id and the job id. A single worker runs the jobs
// inline in job order. Each worker stops at its first failing job and the
// error of the lowest failed job id is returned, so the outcome does not
// depend on scheduling.
func Parallel(nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers == 1 {
		for job := 0; job < nJobs; job++ {
			if err := worker(0, job); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	queue := make(chan int, queueSize)
	go func() {
		for job := 0; job < nJobs; job++ {
			queue <- job
		}
		close(queue)
	}()
	errs := make([]error, nJobs)
	var wg sync.WaitGroup
	for id := 0; id < nWorkers; id++ {
		wg.Add(1)
		go func(id int) {
			defer base.CheckPanic()
			defer wg.Done()
			for job := range queue {
				if err := worker(id, job); err != nil {
					errs[job] = err
					return
				}
			}
		}(id)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

type batch struct {
	begin int
	end   int
}

// BatchParallel is Parallel with jobs handed out in contiguous batches of
// batchSize, for jobs too cheap to schedule one by one. The worker function
// receives a half-open job id range.
func BatchParallel(nJobs, nWorkers, batchSize int, worker func(workerId, beginJobId, endJobId int) error) error {
	if nWorkers == 1 {
		return worker(0, 0, nJobs)
	}
	queue := make(chan batch, queueSize)
	go func() {
		for begin := 0; begin < nJobs; begin += batchSize {
			queue <- batch{begin: begin, end: mathutil.Min(begin+batchSize, nJobs)}
		}
		close(queue)
	}()
	errs := make([]error, nJobs)
	var wg sync.WaitGroup
	for id := 0; id < nWorkers; id++ {
		wg.Add(1)
		go func(id int) {
			defer base.CheckPanic()
			defer wg.Done()
			for b := range queue {
				if err := worker(id, b.begin, b.end); err != nil {
					errs[b.begin] = err
					return
				}
			}
		}(id)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
