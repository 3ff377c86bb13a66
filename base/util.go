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
	"github.com/teasel-io/teasel/base/log"
	"go.uber.org/zap"
)

// RangeInt returns the integers [0, n).
func RangeInt(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// NewMatrix32 allocates a row by col matrix of float32s.
func NewMatrix32(row, col int) [][]float32 {
	matrix := make([][]float32, row)
	for i := range matrix {
		matrix[i] = make([]float32, col)
	}
	return matrix
}

// Concatenate joins index slices into a single slice.
func Concatenate(vectors ...[]int) []int {
	size := 0
	for _, part := range vectors {
		size += len(part)
	}
	joined := make([]int, 0, size)
	for _, part := range vectors {
		joined = append(joined, part...)
	}
	return joined
}

// CheckPanic logs a recovered panic. Pool workers defer it so one bad job
// cannot take the process down.
func CheckPanic() {
	if r := recover(); r != nil {
		log.Logger().Error("panic recovered", zap.Any("panic", r))
	}
}
