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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/teasel-io/teasel/base"
	"github.com/teasel-io/teasel/base/log"
	"github.com/teasel-io/teasel/base/parallel"
	"github.com/teasel-io/teasel/base/progress"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// CrossValidate evaluates a classifier by k-fold cross validation. Folds are
// fitted in parallel on cloned estimators and collected by fold index, so the
// result is identical for any number of jobs. Any fold failure fails the
// whole candidate.
func CrossValidate(ctx context.Context, estimator Classifier, set *Dataset, splitter Splitter, seed int64, config *FitConfig) ([]Score, error) {
	config = config.LoadDefaultIfNil()
	trainFolds, testFolds := splitter(set, seed)
	scores := make([]Score, len(trainFolds))
	newCtx, span := progress.Start(ctx, "CrossValidate", len(trainFolds))
	err := parallel.Parallel(len(trainFolds), config.Jobs, func(_, foldId int) error {
		cp := Clone(estimator)
		foldConfig := NewFitConfig().SetJobs(1).SetVerbose(config.Verbose)
		score, err := cp.Fit(newCtx, trainFolds[foldId], testFolds[foldId], foldConfig)
		if err != nil {
			return errors.Trace(err)
		}
		scores[foldId] = score
		span.Add(1)
		return nil
	})
	if err != nil {
		span.Fail(err)
		return nil, errors.Trace(err)
	}
	span.End()
	return scores, nil
}

// MeanScore averages fold scores metric by metric.
func MeanScore(scores []Score) Score {
	accuracy := make([]float64, len(scores))
	precision := make([]float64, len(scores))
	recall := make([]float64, len(scores))
	f1 := make([]float64, len(scores))
	auc := make([]float64, len(scores))
	for i, score := range scores {
		accuracy[i] = float64(score.Accuracy)
		precision[i] = float64(score.Precision)
		recall[i] = float64(score.Recall)
		f1[i] = float64(score.F1)
		auc[i] = float64(score.AUC)
	}
	return Score{
		Accuracy:  float32(stat.Mean(accuracy, nil)),
		Precision: float32(stat.Mean(precision, nil)),
		Recall:    float32(stat.Mean(recall, nil)),
		F1:        float32(stat.Mean(f1, nil)),
		AUC:       float32(stat.Mean(auc, nil)),
	}
}

// ParamsSearchResult contains the return of hyper-parameter search. BestModel
// carries the winning hyper-parameters but is not fitted.
type ParamsSearchResult struct {
	BestScore  Score
	BestModel  Classifier
	BestParams model.Params
	BestIndex  int
	Scores     []Score
	Params     []model.Params
	Errors     []error
}

// AddScore records a candidate. The first candidate becomes the best, later
// candidates must strictly beat it, so ties keep the earlier candidate.
func (r *ParamsSearchResult) AddScore(params model.Params, score Score, estimator Classifier) {
	r.Scores = append(r.Scores, score)
	r.Params = append(r.Params, params.Copy())
	if r.BestModel == nil || score.BetterThan(r.BestScore) {
		r.BestScore = score
		r.BestParams = params.Copy()
		r.BestIndex = len(r.Params) - 1
		r.BestModel = Clone(estimator)
	}
}

// GridSearchCV finds the best parameters for a classifier over the Cartesian
// product of a parameter grid, scored by mean F1 over k folds. Parameter
// names are visited in sorted order, so candidate order and tie-breaking
// never depend on map iteration. Failed candidates are recorded in Errors and
// skipped.
func GridSearchCV(ctx context.Context, estimator Classifier, set *Dataset, paramGrid model.ParamsGrid, k int, seed int64, fitConfig *FitConfig) ParamsSearchResult {
	// Retrieve parameter names and length
	paramNames := make([]model.ParamName, 0, len(paramGrid))
	count := 1
	for paramName, values := range paramGrid {
		paramNames = append(paramNames, paramName)
		count *= len(values)
	}
	sort.Slice(paramNames, func(i, j int) bool { return paramNames[i] < paramNames[j] })
	// Construct DFS procedure
	results := ParamsSearchResult{
		Scores: make([]Score, 0, count),
		Params: make([]model.Params, 0, count),
	}
	newCtx, span := progress.Start(ctx, "GridSearchCV", count)
	var dfs func(deep int, params model.Params)
	dfs = func(deep int, params model.Params) {
		if deep == len(paramNames) {
			span.Add(1)
			log.Logger().Info(fmt.Sprintf("grid search %v/%v", span.Count(), count),
				zap.Any("params", params))
			// Cross validate
			estimator.Clear()
			estimator.SetParams(estimator.GetParams().Overwrite(params))
			scores, err := CrossValidate(newCtx, estimator, set, NewKFoldSplitter(k), seed, fitConfig)
			if err != nil {
				log.Logger().Warn("skip failed candidate",
					zap.Any("params", params), zap.Error(err))
				results.Errors = append(results.Errors, errors.Annotatef(err, "params %v", params.ToString()))
				return
			}
			results.AddScore(params, MeanScore(scores), estimator)
		} else {
			paramName := paramNames[deep]
			values := paramGrid[paramName]
			for _, val := range values {
				params[paramName] = val
				dfs(deep+1, params)
			}
		}
	}
	params := make(model.Params)
	dfs(0, params)
	span.End()
	return results
}

// Distribution samples candidate values for one hyper-parameter.
type Distribution interface {
	Sample(rng base.RandomGenerator) interface{}
}

// Uniform samples a continuous value uniformly from [Low, High).
type Uniform struct {
	Low, High float64
}

func (u Uniform) Sample(rng base.RandomGenerator) interface{} {
	return u.Low + rng.Float64()*(u.High-u.Low)
}

// Choice samples a value from a fixed candidate list.
type Choice struct {
	Values []interface{}
}

func (c Choice) Sample(rng base.RandomGenerator) interface{} {
	return c.Values[rng.Intn(len(c.Values))]
}

// ParamsDistribution assigns a sampling distribution to each hyper-parameter.
type ParamsDistribution map[model.ParamName]Distribution

// NumCombinations returns the number of distinct parameter sets, or -1 if a
// continuous distribution makes it unbounded.
func (dist ParamsDistribution) NumCombinations() int {
	count := 1
	for _, d := range dist {
		choice, ok := d.(Choice)
		if !ok {
			return -1
		}
		count *= len(choice.Values)
	}
	return count
}

// Grid converts an all-categorical distribution into a parameter grid.
func (dist ParamsDistribution) Grid() model.ParamsGrid {
	grid := make(model.ParamsGrid)
	for name, d := range dist {
		if choice, ok := d.(Choice); ok {
			grid[name] = choice.Values
		}
	}
	return grid
}

// RandomSearchCV searches hyper-parameters by random sampling with a fixed
// seed. Parameters are sampled in sorted name order, so the same seed always
// visits the same candidates. If every distribution is categorical and the
// space is no larger than the trial budget, grid search covers the same space
// without duplicates.
func RandomSearchCV(ctx context.Context, estimator Classifier, set *Dataset, paramDist ParamsDistribution, numTrials, k int, seed int64, fitConfig *FitConfig) ParamsSearchResult {
	if n := paramDist.NumCombinations(); n > 0 && n <= numTrials {
		return GridSearchCV(ctx, estimator, set, paramDist.Grid(), k, seed, fitConfig)
	}
	paramNames := make([]model.ParamName, 0, len(paramDist))
	for paramName := range paramDist {
		paramNames = append(paramNames, paramName)
	}
	sort.Slice(paramNames, func(i, j int) bool { return paramNames[i] < paramNames[j] })
	rng := base.NewRandomGenerator(seed)
	results := ParamsSearchResult{
		Scores: make([]Score, 0, numTrials),
		Params: make([]model.Params, 0, numTrials),
	}
	newCtx, span := progress.Start(ctx, "RandomSearchCV", numTrials)
	for i := 1; i <= numTrials; i++ {
		// Make parameters
		params := model.Params{}
		for _, paramName := range paramNames {
			params[paramName] = paramDist[paramName].Sample(rng)
		}
		span.Add(1)
		log.Logger().Info(fmt.Sprintf("random search %v/%v", i, numTrials),
			zap.Any("params", params))
		// Cross validate
		estimator.Clear()
		estimator.SetParams(estimator.GetParams().Overwrite(params))
		scores, err := CrossValidate(newCtx, estimator, set, NewKFoldSplitter(k), seed, fitConfig)
		if err != nil {
			log.Logger().Warn("skip failed candidate",
				zap.Any("params", params), zap.Error(err))
			results.Errors = append(results.Errors, errors.Annotatef(err, "params %v", params.ToString()))
			continue
		}
		results.AddScore(params, MeanScore(scores), estimator)
	}
	span.End()
	return results
}

// SearchRecord is the search outcome of one bank entry.
type SearchRecord struct {
	Name   string
	Score  Score
	Params model.Params
	Errors []error
}

// ModelSearcher is a thread-safe searcher over the model bank.
type ModelSearcher struct {
	// arguments
	folds     int
	numTrials int
	numJobs   int
	// results
	bestMutex  sync.Mutex
	bestName   string
	bestModel  Classifier
	bestScore  Score
	bestParams model.Params
	records    []SearchRecord
}

// NewModelSearcher creates a thread-safe searcher over the model bank.
func NewModelSearcher(folds, nTrials, nJobs int) *ModelSearcher {
	return &ModelSearcher{
		folds:     folds,
		numTrials: nTrials,
		numJobs:   nJobs,
	}
}

// GetBestModel returns the name, the configured model and the cross
// validation score of the best bank entry.
func (searcher *ModelSearcher) GetBestModel() (string, Classifier, Score) {
	searcher.bestMutex.Lock()
	defer searcher.bestMutex.Unlock()
	return searcher.bestName, searcher.bestModel, searcher.bestScore
}

// Records returns one search record per bank entry, in bank order.
func (searcher *ModelSearcher) Records() []SearchRecord {
	searcher.bestMutex.Lock()
	defer searcher.bestMutex.Unlock()
	return searcher.records
}

func (searcher *ModelSearcher) Fit(ctx context.Context, bank []NamedCreator, set *Dataset, seed int64) error {
	log.Logger().Info("model search",
		zap.Int("n_samples", set.Count()),
		zap.Int("n_features", set.NumFeatures()),
		zap.Int("folds", searcher.folds),
		zap.Int("n_trials", searcher.numTrials))
	startTime := time.Now()
	for _, entry := range bank {
		estimator := entry.Create()
		r := RandomSearchCV(ctx, estimator, set, estimator.GetParamsDistributions(),
			searcher.numTrials, searcher.folds, seed, NewFitConfig().SetJobs(searcher.numJobs))
		searcher.bestMutex.Lock()
		searcher.records = append(searcher.records, SearchRecord{
			Name:   entry.Name,
			Score:  r.BestScore,
			Params: r.BestParams,
			Errors: r.Errors,
		})
		if r.BestModel != nil && (searcher.bestModel == nil || r.BestScore.BetterThan(searcher.bestScore)) {
			searcher.bestName = entry.Name
			searcher.bestModel = r.BestModel
			searcher.bestScore = r.BestScore
			searcher.bestParams = r.BestParams
		}
		searcher.bestMutex.Unlock()
	}
	if searcher.bestModel == nil {
		return errors.Errorf("every candidate failed")
	}
	searchTime := time.Since(startTime)
	log.Logger().Info("complete model search",
		zap.String("model", searcher.bestName),
		zap.Float32("f1", searcher.bestScore.F1),
		zap.Any("params", searcher.bestParams),
		zap.String("search_time", searchTime.String()))
	return nil
}
