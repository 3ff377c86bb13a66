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

type mockClassifierForSearch struct {
	model.BaseModel
}

func (m *mockClassifierForSearch) GetParamsGrid() model.ParamsGrid {
	panic("don't call me")
}

func (m *mockClassifierForSearch) GetParamsDistributions() ParamsDistribution {
	panic("don't call me")
}

func (m *mockClassifierForSearch) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.Lr:  lo.Must(trial.SuggestDiscreteFloat(string(model.Lr), 4, 4, 1)),
		model.Tol: lo.Must(trial.SuggestDiscreteFloat(string(model.Tol), 4, 4, 1)),
	}
}

func (m *mockClassifierForSearch) Clear() {
	// do nothing
}

func (m *mockClassifierForSearch) Predict(_ []float32) int {
	panic("don't call me")
}

func (m *mockClassifierForSearch) DecisionFunction(_ []float32) float32 {
	panic("don't call me")
}

func (m *mockClassifierForSearch) Fit(_ context.Context, _, _ *Dataset, _ *FitConfig) (Score, error) {
	score := float32(0)
	score += m.Params.GetFloat32(model.Lr, 0)
	score += m.Params.GetFloat32(model.Tol, 0)
	return Score{F1: score}, nil
}

func TestTPE(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	search := NewModelSearch(context.Background(), map[string]ModelCreator{
		"mock": func() Classifier { return &mockClassifierForSearch{} },
	}, set, 2, 0, newFitConfig())
	study, err := NewStudy("TestTPE", SamplerTPE, 0)
	assert.NoError(t, err)
	err = study.Optimize(search.Objective, 10)
	assert.NoError(t, err)
	v, err := study.GetBestValue()
	assert.NoError(t, err)
	assert.Equal(t, float64(8), v)
	result := search.Result()
	assert.Equal(t, "mock", result.Type)
	assert.Equal(t, model.Params{
		model.Lr:  float64(4),
		model.Tol: float64(4),
	}, result.Params)
	assert.Equal(t, Score{F1: 8}, result.Score)
}

func TestRandom(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	run := func(seed int64) (float64, OptimizeResult) {
		search := NewModelSearch(context.Background(), map[string]ModelCreator{
			"mock": func() Classifier { return &mockEstimator{} },
		}, set, 2, 0, newFitConfig())
		study, err := NewStudy("TestRandom", SamplerRandom, seed)
		assert.NoError(t, err)
		assert.NoError(t, study.Optimize(search.Objective, 10))
		v, err := study.GetBestValue()
		assert.NoError(t, err)
		return v, search.Result()
	}
	a, resultA := run(42)
	assert.GreaterOrEqual(t, a, 0.1)
	assert.LessOrEqual(t, a, 1.0)
	// the same seed replays the same study
	b, resultB := run(42)
	assert.Equal(t, a, b)
	assert.Equal(t, resultA, resultB)
}

func TestModelSearch_RealModel(t *testing.T) {
	set := newBlobs(t, 30, 4, 0)
	search := NewModelSearch(context.Background(), BankCreators([]NamedCreator{
		{Name: ModelKNN, Create: func() Classifier { return NewKNN(nil) }},
	}), set, 2, 0, newFitConfig())
	study, err := NewStudy("TestModelSearch_RealModel", SamplerTPE, 0)
	assert.NoError(t, err)
	err = study.Optimize(search.Objective, 5)
	assert.NoError(t, err)
	v, err := study.GetBestValue()
	assert.NoError(t, err)
	assert.Greater(t, v, 0.5)
	assert.Equal(t, ModelKNN, search.Result().Type)
}

func TestModelSearch_Pruned(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	search := NewModelSearch(context.Background(), map[string]ModelCreator{
		"mock": func() Classifier { return &mockEstimator{FailAll: true} },
	}, set, 2, 0, newFitConfig())
	study, err := NewStudy("TestModelSearch_Pruned", SamplerRandom, 1)
	assert.NoError(t, err)
	// pruned trials never abort the study
	err = study.Optimize(search.Objective, 3)
	assert.NoError(t, err)
	_, err = study.GetBestValue()
	assert.Error(t, err)
	assert.Empty(t, search.Result().Type)
}

func TestModelSearch_Empty(t *testing.T) {
	set := newBlobs(t, 10, 2, 0)
	search := NewModelSearch(context.Background(), map[string]ModelCreator{}, set, 2, 0, newFitConfig())
	study, err := NewStudy("TestModelSearch_Empty", SamplerRandom, 1)
	assert.NoError(t, err)
	assert.Error(t, study.Optimize(search.Objective, 1))
}

func TestNewStudy_InvalidSampler(t *testing.T) {
	_, err := NewStudy("TestNewStudy_InvalidSampler", "annealing", 0)
	assert.True(t, errors.IsNotValid(err))
}

func TestBankCreators(t *testing.T) {
	creators := BankCreators(DefaultBank())
	assert.Len(t, creators, 4)
	assert.IsType(t, &LogisticRegression{}, creators[ModelLogistic]())
	assert.IsType(t, &RandomForest{}, creators[ModelForest]())
	assert.IsType(t, &SVC{}, creators[ModelSVC]())
	assert.IsType(t, &KNN{}, creators[ModelKNN]())
}