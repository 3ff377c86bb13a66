// Copyright 2024 teasel Project Authors
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

// Package floats provides vector functions for numeric computation.
package floats

import "github.com/chewxy/math32"

// SubTo stores the element-wise difference in dst: dst = a - b.
func SubTo(a, b, dst []float32) {
	if len(dst) != len(a) || len(dst) != len(b) {
		panic("floats: vector lengths mismatch")
	}
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

// MulConst scales dst in place: dst = dst * c.
func MulConst(dst []float32, c float32) {
	for i := range dst {
		dst[i] *= c
	}
}

// MulConstAddTo accumulates a scaled vector into dst: dst = dst + a * c.
func MulConstAddTo(a []float32, c float32, dst []float32) {
	if len(a) != len(dst) {
		panic("floats: vector lengths mismatch")
	}
	for i := range a {
		dst[i] += a[i] * c
	}
}

// Dot returns the inner product of a and b.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) {
		panic("floats: vector lengths mismatch")
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredEuclidean returns the squared euclidean distance between a and b.
func SquaredEuclidean(a, b []float32) float32 {
	if len(a) != len(b) {
		panic("floats: vector lengths mismatch")
	}
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// Euclidean returns the euclidean distance between a and b.
func Euclidean(a, b []float32) float32 {
	return math32.Sqrt(SquaredEuclidean(a, b))
}
