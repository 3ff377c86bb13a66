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
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/teasel-io/teasel/floats"
)

// Dataset is an immutable table of feature vectors paired with binary labels.
type Dataset struct {
	featureNames []string
	features     [][]float32
	labels       []int
}

// NewDataset validates feature vectors and labels and wraps them into a
// dataset. Labels must be 0 or 1.
func NewDataset(featureNames []string, features [][]float32, labels []int) (*Dataset, error) {
	if len(features) != len(labels) {
		return nil, errors.NotValidf("%d feature vectors with %d labels", len(features), len(labels))
	}
	for i, x := range features {
		if len(featureNames) > 0 && len(x) != len(featureNames) {
			return nil, errors.NotValidf("feature vector %d has %d values, expected %d", i, len(x), len(featureNames))
		}
		if len(x) != len(features[0]) {
			return nil, errors.NotValidf("feature vector %d has %d values, expected %d", i, len(x), len(features[0]))
		}
	}
	for i, y := range labels {
		if y != 0 && y != 1 {
			return nil, errors.NotValidf("label %d of sample %d", y, i)
		}
	}
	return &Dataset{
		featureNames: featureNames,
		features:     features,
		labels:       labels,
	}, nil
}

// Count returns the number of samples.
func (d *Dataset) Count() int {
	if d == nil {
		return 0
	}
	return len(d.features)
}

// NumFeatures returns the width of feature vectors.
func (d *Dataset) NumFeatures() int {
	if d == nil || len(d.features) == 0 {
		return 0
	}
	return len(d.features[0])
}

func (d *Dataset) FeatureNames() []string {
	return d.featureNames
}

// Get returns the i-th sample.
func (d *Dataset) Get(i int) ([]float32, int) {
	return d.features[i], d.labels[i]
}

// PositiveCount returns the number of samples labeled 1.
func (d *Dataset) PositiveCount() int {
	count := 0
	for _, y := range d.labels {
		if y == 1 {
			count++
		}
	}
	return count
}

// NegativeCount returns the number of samples labeled 0.
func (d *Dataset) NegativeCount() int {
	return d.Count() - d.PositiveCount()
}

// SubSet returns a dataset over the selected rows. Feature vectors are shared
// with the parent dataset, not copied.
func (d *Dataset) SubSet(indices []int) *Dataset {
	features := make([][]float32, 0, len(indices))
	labels := make([]int, 0, len(indices))
	for _, i := range indices {
		features = append(features, d.features[i])
		labels = append(labels, d.labels[i])
	}
	return &Dataset{
		featureNames: d.featureNames,
		features:     features,
		labels:       labels,
	}
}

// meanScale returns the feature means and standard deviations of a dataset.
// Constant features get unit scale so standardization never divides by zero.
func meanScale(set *Dataset) (mean, scale []float32) {
	mean = make([]float32, set.NumFeatures())
	scale = make([]float32, set.NumFeatures())
	for i := 0; i < set.Count(); i++ {
		x, _ := set.Get(i)
		for j, v := range x {
			mean[j] += v
		}
	}
	floats.MulConst(mean, 1/float32(set.Count()))
	for i := 0; i < set.Count(); i++ {
		x, _ := set.Get(i)
		for j, v := range x {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	floats.MulConst(scale, 1/float32(set.Count()))
	for j := range scale {
		scale[j] = math32.Sqrt(scale[j])
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return
}

// standardize returns (x - mean) / scale.
func standardize(x, mean, scale []float32) []float32 {
	standardized := make([]float32, len(x))
	floats.SubTo(x, mean, standardized)
	for j := range standardized {
		standardized[j] /= scale[j]
	}
	return standardized
}
