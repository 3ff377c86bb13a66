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
	"github.com/teasel-io/teasel/floats"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
)

const (
	KernelRBF    = "rbf"
	KernelLinear = "linear"

	GammaScale = "scale"
	GammaAuto  = "auto"
)

// SVC is a support vector classifier fitted by sequential minimal
// optimization. Features are standardized before training. Labels are mapped
// to {-1, +1} internally and the decision value of a sample is:
//
//	f(x) = sum_i alpha_i y_i K(x_i, x) + b
//
// Hyper-parameters:
//
//	C       - The regularization strength. Default is 1.
//	Kernel  - The kernel, "rbf" or "linear". Default is "rbf".
//	Gamma   - The RBF kernel coefficient, "scale" or "auto". Default is "scale".
//	Tol     - The tolerance of KKT violations. Default is 1e-3.
//	NEpochs - The maximum number of optimization sweeps. Default is 200.
type SVC struct {
	model.BaseModel
	// Model parameters
	SupportVectors [][]float32
	Coefficients   []float32 // alpha_i * y_i per support vector
	Bias           float32
	Gamma          float32
	Mean           []float32
	Scale          []float32
	// Hyper parameters
	c       float32
	kernel  string
	gamma   string
	tol     float32
	nEpochs int
}

// NewSVC creates a support vector classifier.
func NewSVC(params model.Params) *SVC {
	svc := new(SVC)
	svc.SetParams(params)
	return svc
}

// SetParams sets hyper-parameters of the support vector classifier.
func (svc *SVC) SetParams(params model.Params) {
	svc.BaseModel.SetParams(params)
	svc.c = svc.Params.GetFloat32(model.C, 1)
	svc.kernel = svc.Params.GetString(model.Kernel, KernelRBF)
	svc.gamma = svc.Params.GetString(model.Gamma, GammaScale)
	svc.tol = svc.Params.GetFloat32(model.Tol, 1e-3)
	svc.nEpochs = svc.Params.GetInt(model.NEpochs, 200)
}

func (svc *SVC) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.C:      []interface{}{0.1, 1.0, 10.0},
		model.Kernel: []interface{}{KernelRBF, KernelLinear},
	}
}

func (svc *SVC) GetParamsDistributions() ParamsDistribution {
	return ParamsDistribution{
		model.C:      Uniform{Low: 0.1, High: 10},
		model.Kernel: Choice{Values: []interface{}{KernelRBF, KernelLinear}},
		model.Gamma:  Choice{Values: []interface{}{GammaScale, GammaAuto}},
	}
}

func (svc *SVC) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.C:      lo.Must(trial.SuggestLogFloat(string(model.C), 0.1, 10)),
		model.Kernel: lo.Must(trial.SuggestCategorical(string(model.Kernel), []string{KernelRBF, KernelLinear})),
	}
}

func (svc *SVC) Clear() {
	svc.SupportVectors = nil
	svc.Coefficients = nil
	svc.Bias = 0
	svc.Gamma = 0
	svc.Mean = nil
	svc.Scale = nil
}

// Predict the label of a sample.
func (svc *SVC) Predict(x []float32) int {
	if svc.DecisionFunction(x) > 0 {
		return 1
	}
	return 0
}

// DecisionFunction returns the signed distance of a sample to the separating
// hyperplane in kernel space.
func (svc *SVC) DecisionFunction(x []float32) float32 {
	if len(svc.SupportVectors) == 0 {
		return 0
	}
	standardized := standardize(x, svc.Mean, svc.Scale)
	sum := svc.Bias
	for i, vector := range svc.SupportVectors {
		sum += svc.Coefficients[i] * svc.kernelFunc(vector, standardized)
	}
	return sum
}

func (svc *SVC) kernelFunc(a, b []float32) float32 {
	if svc.kernel == KernelLinear {
		return floats.Dot(a, b)
	}
	return math32.Exp(-svc.Gamma * floats.SquaredEuclidean(a, b))
}

func (svc *SVC) validate(trainSet *Dataset) error {
	// sequential minimal optimization updates multipliers in pairs
	if trainSet.Count() < 2 {
		return errors.NotValidf("train set of %d samples", trainSet.Count())
	}
	if svc.c <= 0 {
		return errors.NotValidf("regularization strength %v", svc.c)
	}
	if svc.kernel != KernelRBF && svc.kernel != KernelLinear {
		return errors.NotValidf("kernel %q", svc.kernel)
	}
	if svc.gamma != GammaScale && svc.gamma != GammaAuto {
		return errors.NotValidf("gamma %q", svc.gamma)
	}
	if svc.tol <= 0 {
		return errors.NotValidf("tolerance %v", svc.tol)
	}
	if svc.nEpochs <= 0 {
		return errors.NotValidf("sweep budget %v", svc.nEpochs)
	}
	return nil
}

// Fit the support vector classifier. Optimization stops once a full sweep
// leaves every multiplier unchanged or the sweep budget runs out.
func (svc *SVC) Fit(ctx context.Context, trainSet, testSet *Dataset, config *FitConfig) (Score, error) {
	config = config.LoadDefaultIfNil()
	if err := svc.validate(trainSet); err != nil {
		return Score{}, errors.Trace(err)
	}
	log.Logger().Info("fit svc",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Any("params", svc.GetParams()),
		zap.Any("config", config))
	svc.init(trainSet)
	numSamples := trainSet.Count()
	samples := make([][]float32, numSamples)
	targets := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		x, y := trainSet.Get(i)
		samples[i] = standardize(x, svc.Mean, svc.Scale)
		if y > 0 {
			targets[i] = 1
		} else {
			targets[i] = -1
		}
	}
	// Precompute the kernel matrix, one row per job.
	kernelMatrix := base.NewMatrix32(numSamples, numSamples)
	if err := parallel.Parallel(numSamples, config.Jobs, func(_, i int) error {
		for j := 0; j < numSamples; j++ {
			kernelMatrix[i][j] = svc.kernelFunc(samples[i], samples[j])
		}
		return nil
	}); err != nil {
		return Score{}, errors.Trace(err)
	}
	alpha := make([]float32, numSamples)
	bias := float32(0)
	decide := func(i int) float32 {
		sum := bias
		for j := range alpha {
			if alpha[j] > 0 {
				sum += alpha[j] * targets[j] * kernelMatrix[i][j]
			}
		}
		return sum
	}
	rng := svc.GetRandomGenerator()
	_, span := progress.Start(ctx, "SVC.Fit", svc.nEpochs)
	for sweep := 1; sweep <= svc.nEpochs; sweep++ {
		changed := 0
		for i := 0; i < numSamples; i++ {
			errI := decide(i) - targets[i]
			if (targets[i]*errI < -svc.tol && alpha[i] < svc.c) || (targets[i]*errI > svc.tol && alpha[i] > 0) {
				j := rng.Intn(numSamples - 1)
				if j >= i {
					j++
				}
				errJ := decide(j) - targets[j]
				var low, high float32
				if targets[i] != targets[j] {
					low = math32.Max(0, alpha[j]-alpha[i])
					high = math32.Min(svc.c, svc.c+alpha[j]-alpha[i])
				} else {
					low = math32.Max(0, alpha[i]+alpha[j]-svc.c)
					high = math32.Min(svc.c, alpha[i]+alpha[j])
				}
				if low == high {
					continue
				}
				eta := 2*kernelMatrix[i][j] - kernelMatrix[i][i] - kernelMatrix[j][j]
				if eta >= 0 {
					continue
				}
				nextJ := alpha[j] - targets[j]*(errI-errJ)/eta
				if nextJ > high {
					nextJ = high
				} else if nextJ < low {
					nextJ = low
				}
				if math32.Abs(nextJ-alpha[j]) < 1e-5 {
					continue
				}
				nextI := alpha[i] + targets[i]*targets[j]*(alpha[j]-nextJ)
				bias1 := bias - errI -
					targets[i]*(nextI-alpha[i])*kernelMatrix[i][i] -
					targets[j]*(nextJ-alpha[j])*kernelMatrix[i][j]
				bias2 := bias - errJ -
					targets[i]*(nextI-alpha[i])*kernelMatrix[i][j] -
					targets[j]*(nextJ-alpha[j])*kernelMatrix[j][j]
				if 0 < nextI && nextI < svc.c {
					bias = bias1
				} else if 0 < nextJ && nextJ < svc.c {
					bias = bias2
				} else {
					bias = (bias1 + bias2) / 2
				}
				alpha[i], alpha[j] = nextI, nextJ
				changed++
			}
		}
		span.Add(1)
		if changed == 0 {
			log.Logger().Debug("smo converged", zap.Int("sweeps", sweep))
			break
		}
	}
	span.End()
	// keep support vectors only
	svc.SupportVectors = nil
	svc.Coefficients = nil
	for i := range alpha {
		if alpha[i] > 0 {
			svc.SupportVectors = append(svc.SupportVectors, samples[i])
			svc.Coefficients = append(svc.Coefficients, alpha[i]*targets[i])
		}
	}
	svc.Bias = bias
	score := EvaluateClassification(svc, testSet)
	log.Logger().Info("fit svc complete",
		append([]zap.Field{zap.Int("support_vectors", len(svc.SupportVectors))}, score.ZapFields()...)...)
	return score, nil
}

// init collects feature means and scales and resolves the RBF kernel
// coefficient.
func (svc *SVC) init(trainSet *Dataset) {
	svc.Mean, svc.Scale = meanScale(trainSet)
	// The kernel sees standardized features with unit variance, so "scale"
	// and "auto" both reduce to one over the feature count.
	svc.Gamma = 1 / float32(trainSet.NumFeatures())
}
