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

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/teasel-io/teasel/model"
)

func TestLogisticRegression_Fit(t *testing.T) {
	train := newBlobs(t, 200, 8, 0)
	test := newBlobs(t, 100, 8, 1)
	lr := NewLogisticRegression(model.Params{model.NEpochs: 200})
	score, err := lr.Fit(context.Background(), train, test, newFitConfig())
	assert.NoError(t, err)
	assert.Greater(t, score.F1, float32(0.9))
	assert.InDelta(t, 2*score.Precision*score.Recall/(score.Precision+score.Recall), score.F1, 1e-6)
	assert.Len(t, lr.Weights, train.NumFeatures()+1)
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	train := newBlobs(t, 100, 4, 0)
	test := newBlobs(t, 50, 4, 1)
	a := NewLogisticRegression(model.Params{model.NEpochs: 50})
	scoreA, err := a.Fit(context.Background(), train, test, newFitConfig())
	assert.NoError(t, err)
	b := NewLogisticRegression(model.Params{model.NEpochs: 50})
	scoreB, err := b.Fit(context.Background(), train, test, newFitConfig())
	assert.NoError(t, err)
	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, scoreA, scoreB)
}

func TestLogisticRegression_Validate(t *testing.T) {
	train := newBlobs(t, 10, 2, 0)
	lr := NewLogisticRegression(model.Params{model.Lr: 0.0})
	_, err := lr.Fit(context.Background(), train, train, newFitConfig())
	assert.True(t, errors.IsNotValid(err))
	lr = NewLogisticRegression(model.Params{model.NEpochs: -1})
	_, err = lr.Fit(context.Background(), train, train, newFitConfig())
	assert.True(t, errors.IsNotValid(err))
	empty, err := NewDataset(nil, nil, nil)
	assert.NoError(t, err)
	lr = NewLogisticRegression(nil)
	_, err = lr.Fit(context.Background(), empty, train, newFitConfig())
	assert.True(t, errors.IsNotValid(err))
}

func TestLogisticRegression_Clear(t *testing.T) {
	train := newBlobs(t, 50, 2, 0)
	lr := NewLogisticRegression(model.Params{model.NEpochs: 20})
	_, err := lr.Fit(context.Background(), train, train, newFitConfig())
	assert.NoError(t, err)
	assert.NotNil(t, lr.Weights)
	lr.Clear()
	assert.Nil(t, lr.Weights)
	// an unfitted model predicts the negative class
	assert.Zero(t, lr.DecisionFunction([]float32{1, 2}))
	assert.Equal(t, 0, lr.Predict([]float32{1, 2}))
}

func TestLogisticRegression_Predict(t *testing.T) {
	train := newBlobs(t, 100, 4, 0)
	lr := NewLogisticRegression(model.Params{model.NEpochs: 100})
	_, err := lr.Fit(context.Background(), train, train, newFitConfig())
	assert.NoError(t, err)
	for i := 0; i < train.Count(); i++ {
		x, _ := train.Get(i)
		if lr.DecisionFunction(x) > 0 {
			assert.Equal(t, 1, lr.Predict(x))
		} else {
			assert.Equal(t, 0, lr.Predict(x))
		}
		proba := lr.PredictProba(x)
		assert.GreaterOrEqual(t, proba, float32(0))
		assert.LessOrEqual(t, proba, float32(1))
	}
}