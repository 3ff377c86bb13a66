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
	"testing"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

const randomEpsilon = 0.1

func mean(vec []float32) float32 {
	var sum float32
	for _, v := range vec {
		sum += v
	}
	return sum / float32(len(vec))
}

func stdDev(vec []float32) float32 {
	m := mean(vec)
	var sum float32
	for _, v := range vec {
		sum += (v - m) * (v - m)
	}
	return math32.Sqrt(sum / float32(len(vec)-1))
}

func TestRandomGenerator_NormalVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.NormalVector(1000, 1, 2)
	assert.False(t, math32.Abs(mean(vec)-1) > randomEpsilon)
	assert.False(t, math32.Abs(stdDev(vec)-2) > randomEpsilon)
}

func TestRandomGenerator_UniformVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.UniformVector(1000, 1, 2)
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(1))
		assert.LessOrEqual(t, v, float32(2))
	}
}

func TestRandomGenerator_NormalMatrix(t *testing.T) {
	rng := NewRandomGenerator(0)
	mat := rng.NormalMatrix(10, 100, 1, 2)
	flat := make([]float32, 0, 1000)
	for _, row := range mat {
		flat = append(flat, row...)
	}
	assert.False(t, math32.Abs(mean(flat)-1) > randomEpsilon)
	assert.False(t, math32.Abs(stdDev(flat)-2) > randomEpsilon)
}

func TestRandomGenerator_Sample(t *testing.T) {
	excludeSet := mapset.NewSet(0, 1, 2, 3, 4)
	rng := NewRandomGenerator(0)
	for i := 1; i <= 10; i++ {
		sampled := rng.Sample(0, 10, i, excludeSet)
		seen := mapset.NewSet[int]()
		for j := range sampled {
			assert.False(t, excludeSet.Contains(sampled[j]))
			assert.False(t, seen.Contains(sampled[j]))
			seen.Add(sampled[j])
		}
	}
}

func TestRandomGenerator_Determinism(t *testing.T) {
	a := NewRandomGenerator(42).UniformVector(100, 0, 1)
	b := NewRandomGenerator(42).UniformVector(100, 0, 1)
	assert.Equal(t, a, b)
	c := NewRandomGenerator(43).UniformVector(100, 0, 1)
	assert.NotEqual(t, a, c)
}
