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

package parallel

import (
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/teasel-io/teasel/base"
)

func TestParallel(t *testing.T) {
	const n = 10000
	results := make([]int, n)
	workers := make([]int, n)
	err := Parallel(n, 4, func(workerId, jobId int) error {
		results[jobId] = jobId
		workers[jobId] = workerId
		time.Sleep(time.Microsecond)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, base.RangeInt(n), results)
	seen := mapset.NewSet(workers...)
	assert.Greater(t, seen.Cardinality(), 1)
	assert.LessOrEqual(t, seen.Cardinality(), 4)

	// a single worker runs every job itself
	err = Parallel(n, 1, func(workerId, jobId int) error {
		results[jobId] = jobId
		workers[jobId] = workerId
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, base.RangeInt(n), results)
	assert.Equal(t, 1, mapset.NewSet(workers...).Cardinality())
}

func TestBatchParallel(t *testing.T) {
	// 10000 % 7 > 0 so the last batch is short
	const n, batchSize = 10000, 7
	results := make([]int, n)
	workers := make([]int, n)
	err := BatchParallel(n, 4, batchSize, func(workerId, beginJobId, endJobId int) error {
		assert.LessOrEqual(t, endJobId-beginJobId, batchSize)
		for jobId := beginJobId; jobId < endJobId; jobId++ {
			results[jobId] = jobId
			workers[jobId] = workerId
		}
		time.Sleep(time.Microsecond)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, base.RangeInt(n), results)
	seen := mapset.NewSet(workers...)
	assert.Greater(t, seen.Cardinality(), 1)
	assert.LessOrEqual(t, seen.Cardinality(), 4)

	err = BatchParallel(n, 1, batchSize, func(workerId, beginJobId, endJobId int) error {
		assert.Zero(t, workerId)
		assert.Zero(t, beginJobId)
		assert.Equal(t, n, endJobId)
		return nil
	})
	assert.NoError(t, err)
}

func TestParallelFail(t *testing.T) {
	err := Parallel(10000, 4, func(workerId, jobId int) error {
		if jobId >= 2500 {
			return errors.Errorf("job %d failed", jobId)
		}
		return nil
	})
	// the lowest failed job wins regardless of scheduling
	assert.EqualError(t, err, "job 2500 failed")

	err = Parallel(10000, 1, func(workerId, jobId int) error {
		if jobId >= 2500 {
			return errors.Errorf("job %d failed", jobId)
		}
		return nil
	})
	assert.EqualError(t, err, "job 2500 failed")
}

func TestBatchParallelFail(t *testing.T) {
	err := BatchParallel(1000, 4, 16, func(workerId, beginJobId, endJobId int) error {
		if beginJobId >= 496 {
			return errors.Errorf("batch %d failed", beginJobId)
		}
		return nil
	})
	assert.EqualError(t, err, "batch 496 failed")

	err = BatchParallel(1000, 1, 16, func(workerId, beginJobId, endJobId int) error {
		return errors.Errorf("batch %d failed", beginJobId)
	})
	assert.EqualError(t, err, "batch 0 failed")
}

func TestParallelPanic(t *testing.T) {
	// panics are recovered per worker and never become errors
	assert.NotPanics(t, func() {
		err := Parallel(100, 4, func(workerId, jobId int) error {
			panic("worker down")
		})
		assert.NoError(t, err)
	})
}
