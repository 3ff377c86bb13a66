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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/teasel-io/teasel/base"
	"github.com/teasel-io/teasel/model"
)

// newBlobs returns a dataset of two well separated gaussian blobs with
// alternating labels.
func newBlobs(t *testing.T, count, numFeatures int, seed int64) *Dataset {
	rng := base.NewRandomGenerator(seed)
	features := make([][]float32, 0, count)
	labels := make([]int, 0, count)
	for i := 0; i < count; i++ {
		label := i % 2
		center := float32(-2)
		if label == 1 {
			center = 2
		}
		features = append(features, rng.NormalVector(numFeatures, center, 1))
		labels = append(labels, label)
	}
	set, err := NewDataset(nil, features, labels)
	assert.NoError(t, err)
	return set
}

func newFitConfig() *FitConfig {
	return NewFitConfig().SetVerbose(100)
}

func TestNewModel(t *testing.T) {
	for name, modelType := range map[string]interface{}{
		ModelLogistic: &LogisticRegression{},
		ModelForest:   &RandomForest{},
		ModelSVC:      &SVC{},
		ModelKNN:      &KNN{},
	} {
		m, err := NewModel(name, nil)
		assert.NoError(t, err)
		assert.IsType(t, modelType, m)
		assert.Equal(t, name, GetModelName(m))
	}
	_, err := NewModel("perceptron", nil)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	set := newBlobs(t, 40, 4, 0)
	knn := NewKNN(model.Params{model.NNeighbors: 3})
	_, err := knn.Fit(context.Background(), set, set, newFitConfig())
	assert.NoError(t, err)
	copied := Clone(knn).(*KNN)
	assert.Equal(t, knn.GetParams(), copied.GetParams())
	assert.Equal(t, knn.Samples, copied.Samples)
	// the clone must not share weights with the original
	copied.Samples[0][0] = 100
	assert.NotEqual(t, knn.Samples[0][0], copied.Samples[0][0])
}

func TestScore_BetterThan(t *testing.T) {
	assert.True(t, Score{F1: 0.8}.BetterThan(Score{F1: 0.7}))
	assert.False(t, Score{F1: 0.7}.BetterThan(Score{F1: 0.8}))
	// ties are not better, so the earlier candidate wins
	assert.False(t, Score{F1: 0.8}.BetterThan(Score{F1: 0.8}))
}

func TestScore_Metrics(t *testing.T) {
	score := Score{Accuracy: 0.9, Precision: 0.8, Recall: 0.7, F1: 0.75, AUC: 0.95}
	metrics := score.Metrics()
	assert.Equal(t, map[string]float32{
		"accuracy":  0.9,
		"precision": 0.8,
		"recall":    0.7,
		"f1":        0.75,
		"auc":       0.95,
	}, metrics)
}

func TestFitConfig(t *testing.T) {
	var config *FitConfig
	config = config.LoadDefaultIfNil()
	assert.Equal(t, 1, config.Jobs)
	assert.Equal(t, 10, config.Verbose)
	config = NewFitConfig().SetJobs(4).SetVerbose(5)
	assert.Equal(t, 4, config.Jobs)
	assert.Equal(t, 5, config.Verbose)
	assert.Equal(t, config, config.LoadDefaultIfNil())
}
