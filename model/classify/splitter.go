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

package classify

import (
	"github.com/teasel-io/teasel/base"
)

// Splitter splits a dataset into train sets and test sets. The same seed
// always produces the same split.
type Splitter func(set *Dataset, seed int64) (trainSets, testSets []*Dataset)

// NewKFoldSplitter creates a k-fold splitter. Each sample appears in exactly
// one test fold. When the dataset size isn't divisible by k, the remainder is
// spread over the first folds.
func NewKFoldSplitter(k int) Splitter {
	return func(set *Dataset, seed int64) (trainFolds, testFolds []*Dataset) {
		// Create folds
		trainFolds = make([]*Dataset, k)
		testFolds = make([]*Dataset, k)
		// Generate permutation
		perm := base.NewRandomGenerator(seed).Perm(set.Count())
		// Split folds
		foldSize := set.Count() / k
		begin, end := 0, 0
		for i := 0; i < k; i++ {
			end += foldSize
			if i < set.Count()%k {
				end++
			}
			// Test set
			testIndex := perm[begin:end]
			testFolds[i] = set.SubSet(testIndex)
			// Train set
			trainIndex := base.Concatenate(perm[0:begin], perm[end:set.Count()])
			trainFolds[i] = set.SubSet(trainIndex)
			begin = end
		}
		return trainFolds, testFolds
	}
}

// NewRatioSplitter creates a hold-out splitter. The test set size is the
// truncated product of the test ratio and the dataset size.
func NewRatioSplitter(repeat int, testRatio float32) Splitter {
	return func(set *Dataset, seed int64) (trainFolds, testFolds []*Dataset) {
		trainFolds = make([]*Dataset, repeat)
		testFolds = make([]*Dataset, repeat)
		testSize := int(testRatio * float32(set.Count()))
		rng := base.NewRandomGenerator(seed)
		for i := 0; i < repeat; i++ {
			perm := rng.Perm(set.Count())
			// Test set
			testIndex := perm[:testSize]
			testFolds[i] = set.SubSet(testIndex)
			// Train set
			trainIndex := perm[testSize:]
			trainFolds[i] = set.SubSet(trainIndex)
		}
		return trainFolds, testFolds
	}
}
