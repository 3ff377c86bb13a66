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

package base

import (
	"math/rand"

	mapset "github.com/deckarep/golang-set/v2"
)

// RandomGenerator is a seeded random source. Fits, splits and searches each
// own one, so results are reproducible from their seeds.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// UniformVector draws a vector from U[low, high).
func (rng RandomGenerator) UniformVector(size int, low, high float32) []float32 {
	vec := make([]float32, size)
	span := high - low
	for i := range vec {
		vec[i] = rng.Float32()*span + low
	}
	return vec
}

// NormalVector draws a vector from N(mean, stdDev).
func (rng RandomGenerator) NormalVector(size int, mean, stdDev float32) []float32 {
	vec := make([]float32, size)
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())*stdDev + mean
	}
	return vec
}

// NormalMatrix draws a row by col matrix from N(mean, stdDev).
func (rng RandomGenerator) NormalMatrix(row, col int, mean, stdDev float32) [][]float32 {
	matrix := make([][]float32, row)
	for i := range matrix {
		matrix[i] = rng.NormalVector(col, mean, stdDev)
	}
	return matrix
}

// Sample picks n distinct values from [low, high) that are not in exclude.
// When fewer than n values are available, all of them are returned in
// ascending order.
func (rng RandomGenerator) Sample(low, high, n int, exclude ...mapset.Set[int]) []int {
	space := high - low
	taken := mapset.NewSet[int]()
	for _, set := range exclude {
		taken = taken.Union(set)
	}
	picked := make([]int, 0, n)
	if space-taken.Cardinality() <= n {
		for v := low; v < high; v++ {
			if !taken.Contains(v) {
				picked = append(picked, v)
				taken.Add(v)
			}
		}
	} else {
		for len(picked) < n {
			v := rng.Intn(space) + low
			if !taken.Contains(v) {
				picked = append(picked, v)
				taken.Add(v)
			}
		}
	}
	return picked
}
