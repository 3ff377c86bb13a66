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

package base

import (
	"container/heap"
	"sort"
)

// KNNHeap keeps the k nearest elements seen so far. Heap is used to reduce
// time complexity and memory complexity in nearest neighbor searching.
// Elements are ordered by distance and the lower index wins distance ties, so
// the kept set never depends on insertion order.
type KNNHeap struct {
	Indices   []int     // store element indices
	Distances []float32 // store distances
	K         int       // the size of heap
}

// NewKNNHeap creates a KNNHeap.
func NewKNNHeap(k int) *KNNHeap {
	knnHeap := new(KNNHeap)
	knnHeap.Indices = make([]int, 0, k+1)
	knnHeap.Distances = make([]float32, 0, k+1)
	knnHeap.K = k
	return knnHeap
}

// Less puts the farthest element at the root so that it is evicted first.
// It is a method of heap.Interface.
func (knnHeap *KNNHeap) Less(i, j int) bool {
	if knnHeap.Distances[i] != knnHeap.Distances[j] {
		return knnHeap.Distances[i] > knnHeap.Distances[j]
	}
	return knnHeap.Indices[i] > knnHeap.Indices[j]
}

// Swap the i-th element with the j-th element. It is a method of heap.Interface.
func (knnHeap *KNNHeap) Swap(i, j int) {
	knnHeap.Indices[i], knnHeap.Indices[j] = knnHeap.Indices[j], knnHeap.Indices[i]
	knnHeap.Distances[i], knnHeap.Distances[j] = knnHeap.Distances[j], knnHeap.Distances[i]
}

// Len returns the size of heap. It is a method of heap.Interface.
func (knnHeap *KNNHeap) Len() int {
	return len(knnHeap.Indices)
}

// heapItem is designed for heap.Interface to pass neighbors.
type heapItem struct {
	Index    int
	Distance float32
}

// Push a neighbor into the KNNHeap. It is a method of heap.Interface.
func (knnHeap *KNNHeap) Push(x interface{}) {
	item := x.(heapItem)
	knnHeap.Indices = append(knnHeap.Indices, item.Index)
	knnHeap.Distances = append(knnHeap.Distances, item.Distance)
}

// Pop the farthest neighbor from the KNNHeap. It is a method of heap.Interface.
func (knnHeap *KNNHeap) Pop() interface{} {
	n := knnHeap.Len()
	item := heapItem{
		Index:    knnHeap.Indices[n-1],
		Distance: knnHeap.Distances[n-1],
	}
	knnHeap.Indices = knnHeap.Indices[0 : n-1]
	knnHeap.Distances = knnHeap.Distances[0 : n-1]
	return item
}

// Add a new element to the KNNHeap.
func (knnHeap *KNNHeap) Add(index int, distance float32) {
	// Insert element
	heap.Push(knnHeap, heapItem{index, distance})
	// Remove the farthest
	if knnHeap.Len() > knnHeap.K {
		heap.Pop(knnHeap)
	}
}

// ToSorted returns the kept neighbors from nearest to farthest.
func (knnHeap *KNNHeap) ToSorted() ([]int, []float32) {
	n := knnHeap.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if knnHeap.Distances[a] != knnHeap.Distances[b] {
			return knnHeap.Distances[a] < knnHeap.Distances[b]
		}
		return knnHeap.Indices[a] < knnHeap.Indices[b]
	})
	indices := make([]int, n)
	distances := make([]float32, n)
	for i, p := range order {
		indices[i] = knnHeap.Indices[p]
		distances[i] = knnHeap.Distances[p]
	}
	return indices, distances
}
