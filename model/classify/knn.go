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

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/teasel-io/teasel/base"
	"github.com/teasel-io/teasel/base/log"
	"github.com/teasel-io/teasel/floats"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
)

const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// KNN is a k-nearest neighbors classifier. Fitting only stores the
// standardized train set. The decision value of a sample is the weighted
// positive vote share of its nearest neighbors, centered at the majority
// threshold 0.5. Distance ties resolve to the neighbor stored first.
//
// Hyper-parameters:
//
//	NNeighbors - The number of neighbors. Default is 5.
//	Weights    - The vote weighting, "uniform" or "distance". Default is "uniform".
type KNN struct {
	model.BaseModel
	// Model parameters
	Samples [][]float32
	Labels  []int
	Mean    []float32
	Scale   []float32
	// Hyper parameters
	nNeighbors int
	weights    string
}

// NewKNN creates a k-nearest neighbors model.
func NewKNN(params model.Params) *KNN {
	knn := new(KNN)
	knn.SetParams(params)
	return knn
}

// SetParams sets hyper-parameters of the k-nearest neighbors model.
func (knn *KNN) SetParams(params model.Params) {
	knn.BaseModel.SetParams(params)
	knn.nNeighbors = knn.Params.GetInt(model.NNeighbors, 5)
	knn.weights = knn.Params.GetString(model.Weights, WeightsUniform)
}

func (knn *KNN) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NNeighbors: []interface{}{3, 5, 7, 9},
		model.Weights:    []interface{}{WeightsUniform, WeightsDistance},
	}
}

func (knn *KNN) GetParamsDistributions() ParamsDistribution {
	return ParamsDistribution{
		model.NNeighbors: Choice{Values: []interface{}{3, 5, 7, 9, 11}},
		model.Weights:    Choice{Values: []interface{}{WeightsUniform, WeightsDistance}},
	}
}

func (knn *KNN) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.NNeighbors: lo.Must(trial.SuggestStepInt(string(model.NNeighbors), 3, 11, 2)),
		model.Weights:    lo.Must(trial.SuggestCategorical(string(model.Weights), []string{WeightsUniform, WeightsDistance})),
	}
}

func (knn *KNN) Clear() {
	knn.Samples = nil
	knn.Labels = nil
	knn.Mean = nil
	knn.Scale = nil
}

// Predict the label of a sample.
func (knn *KNN) Predict(x []float32) int {
	if knn.DecisionFunction(x) > 0 {
		return 1
	}
	return 0
}

// DecisionFunction returns the weighted positive vote share of the nearest
// neighbors minus 0.5.
func (knn *KNN) DecisionFunction(x []float32) float32 {
	if len(knn.Samples) == 0 {
		return 0
	}
	standardized := standardize(x, knn.Mean, knn.Scale)
	knnHeap := base.NewKNNHeap(knn.nNeighbors)
	for i, sample := range knn.Samples {
		knnHeap.Add(i, floats.Euclidean(sample, standardized))
	}
	indices, distances := knnHeap.ToSorted()
	var posVotes, totalVotes float32
	for i, index := range indices {
		weight := float32(1)
		if knn.weights == WeightsDistance {
			weight = 1 / math32.Max(distances[i], 1e-8)
		}
		totalVotes += weight
		if knn.Labels[index] == 1 {
			posVotes += weight
		}
	}
	return posVotes/totalVotes - 0.5
}

func (knn *KNN) validate(trainSet *Dataset) error {
	if trainSet.Count() == 0 {
		return errors.NotValidf("empty train set")
	}
	if knn.nNeighbors <= 0 || knn.nNeighbors > trainSet.Count() {
		return errors.NotValidf("neighbor count %v for %v samples", knn.nNeighbors, trainSet.Count())
	}
	if knn.weights != WeightsUniform && knn.weights != WeightsDistance {
		return errors.NotValidf("weights %q", knn.weights)
	}
	return nil
}

// Fit the k-nearest neighbors model. There is nothing to optimize, so fitting
// stores the standardized train set and evaluates on the test set, which is
// where the cost of this model lives.
func (knn *KNN) Fit(_ context.Context, trainSet, testSet *Dataset, config *FitConfig) (Score, error) {
	config = config.LoadDefaultIfNil()
	if err := knn.validate(trainSet); err != nil {
		return Score{}, errors.Trace(err)
	}
	log.Logger().Info("fit knn",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Any("params", knn.GetParams()),
		zap.Any("config", config))
	knn.Mean, knn.Scale = meanScale(trainSet)
	knn.Samples = make([][]float32, trainSet.Count())
	knn.Labels = make([]int, trainSet.Count())
	for i := 0; i < trainSet.Count(); i++ {
		x, y := trainSet.Get(i)
		knn.Samples[i] = standardize(x, knn.Mean, knn.Scale)
		knn.Labels[i] = y
	}
	score := EvaluateClassificationParallel(knn, testSet, config.Jobs)
	log.Logger().Info("fit knn complete", score.ZapFields()...)
	return score, nil
}
