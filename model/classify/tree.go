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
	"sort"

	"github.com/teasel-io/teasel/base"
)

// Node is a node of a decision tree. Every node carries the positive share of
// the train samples it covers, so a tree can be walked without the dataset.
type Node struct {
	Feature   int
	Threshold float32
	Left      *Node
	Right     *Node
	Leaf      bool
	Value     float32
}

// Decide walks the tree and returns the positive share at the reached leaf.
func (node *Node) Decide(x []float32) float32 {
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type treeBuilder struct {
	set             *Dataset
	rng             base.RandomGenerator
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
}

func (b *treeBuilder) build(indices []int, depth int) *Node {
	pos := 0
	for _, i := range indices {
		_, y := b.set.Get(i)
		pos += y
	}
	value := float32(pos) / float32(len(indices))
	if pos == 0 || pos == len(indices) ||
		len(indices) < b.minSamplesSplit ||
		(b.maxDepth > 0 && depth >= b.maxDepth) {
		return &Node{Leaf: true, Value: value}
	}
	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		// all candidate features are constant over these samples
		return &Node{Leaf: true, Value: value}
	}
	var left, right []int
	for _, i := range indices {
		x, _ := b.set.Get(i)
		if x[feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
		Value:     value,
	}
}

// bestSplit scans a random subset of features for the threshold with the
// lowest weighted Gini impurity. Candidate features are visited in ascending
// order so ties always resolve the same way.
func (b *treeBuilder) bestSplit(indices []int) (int, float32, bool) {
	features := b.rng.Sample(0, b.set.NumFeatures(), b.maxFeatures)
	sort.Ints(features)
	type sample struct {
		value float32
		label int
	}
	samples := make([]sample, len(indices))
	bestImpurity := float32(2)
	bestFeature, bestThreshold := -1, float32(0)
	for _, feature := range features {
		totalPos := 0
		for i, index := range indices {
			x, y := b.set.Get(index)
			samples[i] = sample{value: x[feature], label: y}
			totalPos += y
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].value < samples[j].value })
		leftPos := 0
		for i := 0; i < len(samples)-1; i++ {
			leftPos += samples[i].label
			if samples[i].value == samples[i+1].value {
				continue
			}
			left, right := i+1, len(samples)-i-1
			impurity := (giniImpurity(leftPos, left)*float32(left) +
				giniImpurity(totalPos-leftPos, right)*float32(right)) / float32(len(samples))
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = feature
				bestThreshold = (samples[i].value + samples[i+1].value) / 2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func giniImpurity(pos, total int) float32 {
	p := float32(pos) / float32(total)
	return 2 * p * (1 - p)
}
