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
	"github.com/teasel-io/teasel/base/parallel"
	"github.com/teasel-io/teasel/base/progress"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
	"modernc.org/mathutil"
)

// RandomForest is an ensemble of decision trees, each fitted on a bootstrap
// sample of the train set with a random subset of features considered at
// every split. The decision value of a sample is the mean positive share over
// all trees, centered at the majority threshold 0.5.
//
// Hyper-parameters:
//
//	NEstimators     - The number of trees. Default is 100.
//	MaxDepth        - The maximum depth of a tree. 0 means unlimited. Default is 0.
//	MinSamplesSplit - The minimum number of samples required to split a node. Default is 2.
//	MaxFeatures     - The number of features considered at each split. 0 means the
//	                  square root of the feature count. Default is 0.
type RandomForest struct {
	model.BaseModel
	// Model parameters
	Trees []*Node
	// Hyper parameters
	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
}

// NewRandomForest creates a random forest model.
func NewRandomForest(params model.Params) *RandomForest {
	rf := new(RandomForest)
	rf.SetParams(params)
	return rf
}

// SetParams sets hyper-parameters of the random forest model.
func (rf *RandomForest) SetParams(params model.Params) {
	rf.BaseModel.SetParams(params)
	rf.nEstimators = rf.Params.GetInt(model.NEstimators, 100)
	rf.maxDepth = rf.Params.GetInt(model.MaxDepth, 0)
	rf.minSamplesSplit = rf.Params.GetInt(model.MinSamplesSplit, 2)
	rf.maxFeatures = rf.Params.GetInt(model.MaxFeatures, 0)
}

func (rf *RandomForest) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NEstimators:     []interface{}{50, 100, 200},
		model.MaxDepth:        []interface{}{0, 10, 20},
		model.MinSamplesSplit: []interface{}{2, 5, 10},
	}
}

func (rf *RandomForest) GetParamsDistributions() ParamsDistribution {
	return ParamsDistribution{
		model.NEstimators:     Choice{Values: []interface{}{50, 100, 200}},
		model.MaxDepth:        Choice{Values: []interface{}{0, 10, 20}},
		model.MinSamplesSplit: Choice{Values: []interface{}{2, 5, 10}},
	}
}

func (rf *RandomForest) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.NEstimators:     lo.Must(trial.SuggestStepInt(string(model.NEstimators), 50, 200, 50)),
		model.MaxDepth:        lo.Must(trial.SuggestStepInt(string(model.MaxDepth), 0, 20, 10)),
		model.MinSamplesSplit: lo.Must(trial.SuggestInt(string(model.MinSamplesSplit), 2, 10)),
	}
}

func (rf *RandomForest) Clear() {
	rf.Trees = nil
}

// Predict the label of a sample.
func (rf *RandomForest) Predict(x []float32) int {
	if rf.DecisionFunction(x) > 0 {
		return 1
	}
	return 0
}

// DecisionFunction returns the mean positive share over all trees minus 0.5.
func (rf *RandomForest) DecisionFunction(x []float32) float32 {
	if len(rf.Trees) == 0 {
		return 0
	}
	var sum float32
	for _, tree := range rf.Trees {
		sum += tree.Decide(x)
	}
	return sum/float32(len(rf.Trees)) - 0.5
}

func (rf *RandomForest) validate(trainSet *Dataset) error {
	if trainSet.Count() == 0 {
		return errors.NotValidf("empty train set")
	}
	if rf.nEstimators <= 0 {
		return errors.NotValidf("tree count %v", rf.nEstimators)
	}
	if rf.maxDepth < 0 {
		return errors.NotValidf("max depth %v", rf.maxDepth)
	}
	if rf.minSamplesSplit < 2 {
		return errors.NotValidf("min samples split %v", rf.minSamplesSplit)
	}
	if rf.maxFeatures < 0 || rf.maxFeatures > trainSet.NumFeatures() {
		return errors.NotValidf("max features %v", rf.maxFeatures)
	}
	return nil
}

// Fit the random forest model. Trees are fitted in parallel. Bootstrap seeds
// are drawn before any tree starts, so the fitted forest is the same for any
// number of jobs.
func (rf *RandomForest) Fit(ctx context.Context, trainSet, testSet *Dataset, config *FitConfig) (Score, error) {
	config = config.LoadDefaultIfNil()
	if err := rf.validate(trainSet); err != nil {
		return Score{}, errors.Trace(err)
	}
	log.Logger().Info("fit random forest",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Any("params", rf.GetParams()),
		zap.Any("config", config))
	maxFeatures := rf.maxFeatures
	if maxFeatures == 0 {
		maxFeatures = mathutil.Min(trainSet.NumFeatures(),
			mathutil.Max(1, int(math32.Sqrt(float32(trainSet.NumFeatures())))))
	}
	seeds := make([]int64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = rf.GetRandomGenerator().Int63()
	}
	trees := make([]*Node, rf.nEstimators)
	_, span := progress.Start(ctx, "RandomForest.Fit", rf.nEstimators)
	err := parallel.Parallel(rf.nEstimators, config.Jobs, func(_, jobId int) error {
		rng := base.NewRandomGenerator(seeds[jobId])
		indices := make([]int, trainSet.Count())
		for i := range indices {
			indices[i] = rng.Intn(trainSet.Count())
		}
		builder := &treeBuilder{
			set:             trainSet,
			rng:             rng,
			maxDepth:        rf.maxDepth,
			minSamplesSplit: rf.minSamplesSplit,
			maxFeatures:     maxFeatures,
		}
		trees[jobId] = builder.build(indices, 0)
		span.Add(1)
		return nil
	})
	span.End()
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	rf.Trees = trees
	score := EvaluateClassification(rf, testSet)
	log.Logger().Info("fit random forest complete", score.ZapFields()...)
	return score, nil
}
