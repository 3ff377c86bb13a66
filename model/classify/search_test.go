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

	"github.com/c-bata/goptuna"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/teasel-io/teasel/model"
)

// mockEstimator scores a candidate from its hyper-parameters alone, so search
// outcomes are exact. Fields are exported to survive cloning.
type mockEstimator struct {
	model.BaseModel
	BaseF1  float32
	FailLr  float64
	FailAll bool
	Dist    ParamsDistribution
	Fitted  bool
}

func (m *mockEstimator) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{model.Lr: []interface{}{0.1, 0.2}}
}

func (m *mockEstimator) GetParamsDistributions() ParamsDistribution {
	if m.Dist != nil {
		return m.Dist
	}
	return ParamsDistribution{model.Lr: Choice{Values: []interface{}{0.1, 0.2}}}
}

func (m *mockEstimator) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{model.Lr: lo.Must(trial.SuggestFloat(string(model.Lr), 0.1, 1))}
}

func (m *mockEstimator) Clear() {
	m.Fitted = false
}

func (m *mockEstimator) Predict(_ []float32) int {
	return 0
}

func (m *mockEstimator) DecisionFunction(_ []float32) float32 {
	return 0
}

func (m *mockEstimator) Fit(_ context.Context, _, _ *Dataset, _ *FitConfig) (Score, error) {
	lr := m.Params.GetFloat64(model.Lr, 0)
	if m.FailAll || (m.FailLr != 0 && lr == m.FailLr) {
		return Score{}, errors.New("injected failure")
	}
	m.Fitted = true
	return Score{F1: m.BaseF1 + float32(lr) + 0.01*float32(m.Params.GetInt(model.NEpochs, 0))}, nil
}

func TestCrossValidate(t *testing.T) {
	set := newBlobs(t, 60, 4, 0)
	lr := NewLogisticRegression(model.Params{model.NEpochs: 50})
	serial, err := CrossValidate(context.Background(), lr, set, NewKFoldSplitter(3), 42, newFitConfig().SetJobs(1))
	assert.NoError(t, err)
	assert.Len(t, serial, 3)
	// folds are collected by index, so jobs never change the result
	concurrent, err := CrossValidate(context.Background(), lr, set, NewKFoldSplitter(3), 42, newFitConfig().SetJobs(4))
	assert.NoError(t, err)
	assert.Equal(t, serial, concurrent)
	// the estimator itself stays unfitted
	assert.Nil(t, lr.Weights)
}

func TestCrossValidate_Failure(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	mock := &mockEstimator{FailLr: 0.3}
	mock.SetParams(model.Params{model.Lr: 0.3})
	_, err := CrossValidate(context.Background(), mock, set, NewKFoldSplitter(2), 0, newFitConfig())
	assert.Error(t, err)
}

func TestMeanScore(t *testing.T) {
	mean := MeanScore([]Score{
		{Accuracy: 0.5, Precision: 0.2, Recall: 0.4, F1: 0.2, AUC: 0.6},
		{Accuracy: 1.0, Precision: 0.4, Recall: 0.8, F1: 0.4, AUC: 0.8},
	})
	assert.InDelta(t, 0.75, mean.Accuracy, 1e-6)
	assert.InDelta(t, 0.3, mean.Precision, 1e-6)
	assert.InDelta(t, 0.6, mean.Recall, 1e-6)
	assert.InDelta(t, 0.3, mean.F1, 1e-6)
	assert.InDelta(t, 0.7, mean.AUC, 1e-6)
}

func TestParamsSearchResult_AddScore(t *testing.T) {
	r := ParamsSearchResult{}
	// the first candidate becomes the best even with a zero score
	r.AddScore(model.Params{model.Lr: 0.1}, Score{}, NewKNN(nil))
	assert.NotNil(t, r.BestModel)
	assert.Equal(t, 0, r.BestIndex)
	// a tie keeps the earlier candidate
	r.AddScore(model.Params{model.Lr: 0.2}, Score{}, NewKNN(nil))
	assert.Equal(t, 0, r.BestIndex)
	r.AddScore(model.Params{model.Lr: 0.3}, Score{F1: 0.5}, NewKNN(nil))
	assert.Equal(t, 2, r.BestIndex)
	assert.Equal(t, model.Params{model.Lr: 0.3}, r.BestParams)
}

func TestGridSearchCV(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	mock := &mockEstimator{}
	mock.SetParams(nil)
	grid := model.ParamsGrid{
		model.Lr:      []interface{}{0.1, 0.2},
		model.NEpochs: []interface{}{1, 2},
	}
	r := GridSearchCV(context.Background(), mock, set, grid, 2, 0, newFitConfig())
	// candidates follow sorted parameter names
	assert.Equal(t, []model.Params{
		{model.Lr: 0.1, model.NEpochs: 1},
		{model.Lr: 0.1, model.NEpochs: 2},
		{model.Lr: 0.2, model.NEpochs: 1},
		{model.Lr: 0.2, model.NEpochs: 2},
	}, r.Params)
	assert.Empty(t, r.Errors)
	assert.Len(t, r.Scores, 4)
	assert.InDelta(t, 0.11, r.Scores[0].F1, 1e-6)
	assert.InDelta(t, 0.12, r.Scores[1].F1, 1e-6)
	assert.InDelta(t, 0.21, r.Scores[2].F1, 1e-6)
	assert.InDelta(t, 0.22, r.Scores[3].F1, 1e-6)
	// the winner is the maximum over all candidates
	assert.Equal(t, 3, r.BestIndex)
	assert.Equal(t, model.Params{model.Lr: 0.2, model.NEpochs: 2}, r.BestParams)
	for _, score := range r.Scores {
		assert.GreaterOrEqual(t, r.BestScore.F1, score.F1)
	}
	assert.InDelta(t, 0.2, r.BestModel.GetParams().GetFloat64(model.Lr, 0), 1e-6)
}

func TestGridSearchCV_Tie(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	mock := &mockEstimator{}
	mock.SetParams(nil)
	grid := model.ParamsGrid{model.Lr: []interface{}{0.2, 0.2, 0.1}}
	r := GridSearchCV(context.Background(), mock, set, grid, 2, 0, newFitConfig())
	assert.Len(t, r.Scores, 3)
	assert.Equal(t, 0, r.BestIndex)
}

func TestGridSearchCV_FailedCandidates(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	mock := &mockEstimator{FailLr: 0.3}
	mock.SetParams(nil)
	grid := model.ParamsGrid{
		model.Lr:      []interface{}{0.1, 0.2, 0.3},
		model.NEpochs: []interface{}{1, 2},
	}
	r := GridSearchCV(context.Background(), mock, set, grid, 2, 0, newFitConfig())
	// failed candidates are excluded, not fatal
	assert.Len(t, r.Errors, 2)
	assert.Len(t, r.Scores, 4)
	assert.Equal(t, 3, r.BestIndex)
	assert.Equal(t, model.Params{model.Lr: 0.2, model.NEpochs: 2}, r.BestParams)
}

func TestParamsDistribution(t *testing.T) {
	all := ParamsDistribution{
		model.Lr:      Choice{Values: []interface{}{0.1, 0.2}},
		model.NEpochs: Choice{Values: []interface{}{1, 2, 3}},
	}
	assert.Equal(t, 6, all.NumCombinations())
	assert.Equal(t, model.ParamsGrid{
		model.Lr:      []interface{}{0.1, 0.2},
		model.NEpochs: []interface{}{1, 2, 3},
	}, all.Grid())
	continuous := ParamsDistribution{model.Lr: Uniform{Low: 0, High: 1}}
	assert.Equal(t, -1, continuous.NumCombinations())
}

func TestRandomSearchCV(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	dist := ParamsDistribution{model.Lr: Uniform{Low: 0.1, High: 0.9}}
	search := func(seed int64) ParamsSearchResult {
		mock := &mockEstimator{}
		mock.SetParams(nil)
		return RandomSearchCV(context.Background(), mock, set, dist, 6, 2, seed, newFitConfig())
	}
	a := search(11)
	assert.Len(t, a.Scores, 6)
	assert.Empty(t, a.Errors)
	// the same seed visits the same candidates
	b := search(11)
	assert.Equal(t, a.Params, b.Params)
	assert.Equal(t, a.Scores, b.Scores)
	assert.Equal(t, a.BestIndex, b.BestIndex)
	// another seed visits other candidates
	c := search(12)
	assert.NotEqual(t, a.Params, c.Params)
	for _, score := range a.Scores {
		assert.GreaterOrEqual(t, a.BestScore.F1, score.F1)
	}
}

func TestRandomSearchCV_GridFallback(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	dist := ParamsDistribution{
		model.Lr:      Choice{Values: []interface{}{0.1, 0.2}},
		model.NEpochs: Choice{Values: []interface{}{1, 2}},
	}
	mock := &mockEstimator{}
	mock.SetParams(nil)
	random := RandomSearchCV(context.Background(), mock, set, dist, 20, 2, 0, newFitConfig())
	// a small categorical space is searched exhaustively without duplicates
	other := &mockEstimator{}
	other.SetParams(nil)
	grid := GridSearchCV(context.Background(), other, set, dist.Grid(), 2, 0, newFitConfig())
	assert.Equal(t, grid.Params, random.Params)
	assert.Equal(t, grid.Scores, random.Scores)
	assert.Len(t, random.Scores, 4)
}

func TestModelSearcher(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	bank := []NamedCreator{
		{Name: "weak", Create: func() Classifier { return &mockEstimator{BaseF1: 0.1} }},
		{Name: "strong", Create: func() Classifier { return &mockEstimator{BaseF1: 0.5} }},
	}
	searcher := NewModelSearcher(2, 10, 1)
	err := searcher.Fit(context.Background(), bank, set, 0)
	assert.NoError(t, err)
	records := searcher.Records()
	assert.Len(t, records, 2)
	assert.Equal(t, "weak", records[0].Name)
	assert.Equal(t, "strong", records[1].Name)
	name, best, score := searcher.GetBestModel()
	assert.Equal(t, "strong", name)
	assert.NotNil(t, best)
	assert.InDelta(t, 0.7, score.F1, 1e-6)
}

func TestModelSearcher_AllFailed(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	bank := []NamedCreator{
		{Name: "doomed", Create: func() Classifier {
			return &mockEstimator{
				FailLr: 0.3,
				Dist:   ParamsDistribution{model.Lr: Choice{Values: []interface{}{0.3}}},
			}
		}},
	}
	searcher := NewModelSearcher(2, 10, 1)
	err := searcher.Fit(context.Background(), bank, set, 0)
	assert.Error(t, err)
	records := searcher.Records()
	assert.Len(t, records, 1)
	assert.Len(t, records[0].Errors, 1)
}