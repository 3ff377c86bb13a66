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
	"math"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/teasel-io/teasel/base/log"
	"github.com/teasel-io/teasel/base/progress"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression classifies samples by a linear decision boundary fitted
// with batch gradient descent on the cross-entropy loss. Features are
// standardized to zero mean and unit variance before training. The probability
// of the positive class is estimated by:
//
//	p(y=1|x) = 1 / (1 + exp(-w^T x - b))
//
// Hyper-parameters:
//
//	Lr      - The learning rate of gradient descent. Default is 0.1.
//	NEpochs - The maximum number of epochs. Default is 500.
//	Tol     - The gradient norm below which training stops. Default is 1e-4.
type LogisticRegression struct {
	model.BaseModel
	// Model parameters
	Weights []float64 // the last weight is the intercept
	Mean    []float32
	Scale   []float32
	// Hyper parameters
	learnRate float32
	nEpochs   int
	tol       float32
}

// NewLogisticRegression creates a logistic regression model.
func NewLogisticRegression(params model.Params) *LogisticRegression {
	lr := new(LogisticRegression)
	lr.SetParams(params)
	return lr
}

// SetParams sets hyper-parameters of the logistic regression model.
func (lr *LogisticRegression) SetParams(params model.Params) {
	lr.BaseModel.SetParams(params)
	lr.learnRate = lr.Params.GetFloat32(model.Lr, 0.1)
	lr.nEpochs = lr.Params.GetInt(model.NEpochs, 500)
	lr.tol = lr.Params.GetFloat32(model.Tol, 1e-4)
}

func (lr *LogisticRegression) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.Lr:      []interface{}{0.01, 0.1, 1.0},
		model.NEpochs: []interface{}{100, 500},
	}
}

func (lr *LogisticRegression) GetParamsDistributions() ParamsDistribution {
	return ParamsDistribution{
		model.Lr:      Uniform{Low: 0.001, High: 1},
		model.NEpochs: Choice{Values: []interface{}{100, 500, 1000}},
	}
}

func (lr *LogisticRegression) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.Lr:      lo.Must(trial.SuggestLogFloat(string(model.Lr), 0.001, 1)),
		model.NEpochs: lo.Must(trial.SuggestStepInt(string(model.NEpochs), 100, 1000, 100)),
	}
}

func (lr *LogisticRegression) Clear() {
	lr.Weights = nil
	lr.Mean = nil
	lr.Scale = nil
}

// Predict the label of a sample.
func (lr *LogisticRegression) Predict(x []float32) int {
	if lr.DecisionFunction(x) > 0 {
		return 1
	}
	return 0
}

// PredictProba returns the estimated probability of the positive class.
func (lr *LogisticRegression) PredictProba(x []float32) float32 {
	return 1 / (1 + math32.Exp(-lr.DecisionFunction(x)))
}

// DecisionFunction returns the logit of a sample.
func (lr *LogisticRegression) DecisionFunction(x []float32) float32 {
	if len(lr.Weights) == 0 {
		return 0
	}
	standardized := standardize(x, lr.Mean, lr.Scale)
	sum := lr.Weights[len(lr.Weights)-1]
	for j, v := range standardized {
		sum += float64(v) * lr.Weights[j]
	}
	return float32(sum)
}

// Init collects feature means and scales from the train set and resets
// weights to zero.
func (lr *LogisticRegression) Init(trainSet *Dataset) {
	lr.Mean, lr.Scale = meanScale(trainSet)
	lr.Weights = make([]float64, trainSet.NumFeatures()+1)
}

func (lr *LogisticRegression) validate(trainSet *Dataset) error {
	if trainSet.Count() == 0 {
		return errors.NotValidf("empty train set")
	}
	if lr.learnRate <= 0 {
		return errors.NotValidf("learning rate %v", lr.learnRate)
	}
	if lr.nEpochs <= 0 {
		return errors.NotValidf("epoch budget %v", lr.nEpochs)
	}
	if lr.tol < 0 {
		return errors.NotValidf("tolerance %v", lr.tol)
	}
	return nil
}

// Fit the logistic regression model. Training stops early once the gradient
// norm falls below Tol. If the epoch budget runs out first, a warning is
// logged and the best weights seen so far are kept.
func (lr *LogisticRegression) Fit(ctx context.Context, trainSet, testSet *Dataset, config *FitConfig) (Score, error) {
	config = config.LoadDefaultIfNil()
	if err := lr.validate(trainSet); err != nil {
		return Score{}, errors.Trace(err)
	}
	log.Logger().Info("fit logistic regression",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Any("params", lr.GetParams()),
		zap.Any("config", config))
	lr.Init(trainSet)
	numSamples := trainSet.Count()
	numWeights := trainSet.NumFeatures() + 1
	// Build the standardized design matrix with an intercept column.
	x := mat.NewDense(numSamples, numWeights, nil)
	y := mat.NewVecDense(numSamples, nil)
	for i := 0; i < numSamples; i++ {
		features, label := trainSet.Get(i)
		for j, v := range features {
			x.Set(i, j, float64((v-lr.Mean[j])/lr.Scale[j]))
		}
		x.Set(i, numWeights-1, 1)
		y.SetVec(i, float64(label))
	}
	// The weight vector shares its backing array with lr.Weights so that
	// evaluation always sees the current weights.
	w := mat.NewVecDense(numWeights, lr.Weights)
	logits := mat.NewVecDense(numSamples, nil)
	residual := mat.NewVecDense(numSamples, nil)
	grad := mat.NewVecDense(numWeights, nil)
	snapshots := SnapshotManger{}
	evalStart := time.Now()
	score := EvaluateClassification(lr, testSet)
	evalTime := time.Since(evalStart)
	log.Logger().Debug(fmt.Sprintf("fit logistic regression %v/%v", 0, lr.nEpochs),
		append([]zap.Field{zap.String("eval_time", evalTime.String())}, score.ZapFields()...)...)
	snapshots.AddSnapshot(score, lr.Weights)
	_, span := progress.Start(ctx, "LogisticRegression.Fit", lr.nEpochs)
	converged := false
	gradNorm := float32(0)
	for epoch := 1; epoch <= lr.nEpochs; epoch++ {
		fitStart := time.Now()
		logits.MulVec(x, w)
		for i := 0; i < numSamples; i++ {
			residual.SetVec(i, sigmoid(logits.AtVec(i))-y.AtVec(i))
		}
		grad.MulVec(x.T(), residual)
		w.AddScaledVec(w, -float64(lr.learnRate)/float64(numSamples), grad)
		gradNorm = float32(mat.Norm(grad, 2)) / float32(numSamples)
		fitTime := time.Since(fitStart)
		span.Add(1)
		if epoch%config.Verbose == 0 || epoch == lr.nEpochs || gradNorm < lr.tol {
			evalStart = time.Now()
			score = EvaluateClassification(lr, testSet)
			evalTime = time.Since(evalStart)
			log.Logger().Debug(fmt.Sprintf("fit logistic regression %v/%v", epoch, lr.nEpochs),
				append([]zap.Field{
					zap.String("fit_time", fitTime.String()),
					zap.String("eval_time", evalTime.String()),
					zap.Float32("gradient_norm", gradNorm),
				}, score.ZapFields()...)...)
			snapshots.AddSnapshot(score, lr.Weights)
		}
		if gradNorm < lr.tol {
			converged = true
			break
		}
	}
	span.End()
	if !converged {
		log.Logger().Warn("gradient descent used up the epoch budget before converging",
			zap.Int("n_epochs", lr.nEpochs),
			zap.Float32("gradient_norm", gradNorm),
			zap.Float32("tol", lr.tol))
	}
	// restore best snapshot
	lr.Weights = snapshots.BestWeights[0].([]float64)
	log.Logger().Info("fit logistic regression complete", snapshots.BestScore.ZapFields()...)
	return snapshots.BestScore, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
