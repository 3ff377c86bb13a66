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

// Package classify provides binary classifiers over tabular datasets together
// with train/test splitting, evaluation metrics and hyper-parameter search.
package classify

import (
	"context"

	"github.com/c-bata/goptuna"
	"github.com/juju/errors"
	"github.com/teasel-io/teasel/base/copier"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
)

const (
	ModelLogistic = "logistic"
	ModelForest   = "forest"
	ModelSVC      = "svc"
	ModelKNN      = "knn"
)

// Classifier is the interface implemented by all binary classifiers. The
// positive class is label 1.
type Classifier interface {
	model.Model
	// Fit a model with a train set. The test set is used to evaluate the
	// fitted model. Fit returns an error if the train set is degenerate or
	// the hyper-parameters are invalid.
	Fit(ctx context.Context, trainSet, testSet *Dataset, config *FitConfig) (Score, error)
	// Predict the label of a sample.
	Predict(x []float32) int
	// DecisionFunction returns a score whose sign decides the predicted
	// label: positive means label 1.
	DecisionFunction(x []float32) float32
	// GetParamsDistributions returns the default sampling distributions for
	// random search.
	GetParamsDistributions() ParamsDistribution
	// SuggestParams returns hyper-parameters from a hyper-parameter
	// optimization trial.
	SuggestParams(trial goptuna.Trial) model.Params
}

// Score records evaluation metrics of a classifier on a test set. All metrics
// are computed with respect to the positive class.
type Score struct {
	Accuracy  float32
	Precision float32
	Recall    float32
	F1        float32
	AUC       float32
}

func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("Accuracy", score.Accuracy),
		zap.Float32("Precision", score.Precision),
		zap.Float32("Recall", score.Recall),
		zap.Float32("F1", score.F1),
		zap.Float32("AUC", score.AUC),
	}
}

// Metrics returns named metric values for reporting.
func (score Score) Metrics() map[string]float32 {
	return map[string]float32{
		"accuracy":  score.Accuracy,
		"precision": score.Precision,
		"recall":    score.Recall,
		"f1":        score.F1,
		"auc":       score.AUC,
	}
}

// BetterThan compares scores by F1. The comparison is strict so that the
// earlier of two tied candidates wins.
func (score Score) BetterThan(s Score) bool {
	return score.F1 > s.F1
}

type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// Clone a classifier with deep copied weights and hyper-parameters.
func Clone(m Classifier) Classifier {
	var copied Classifier
	if err := copier.Copy(&copied, m); err != nil {
		panic(err)
	} else {
		copied.SetParams(copied.GetParams())
		return copied
	}
}

func GetModelName(m Classifier) string {
	switch m.(type) {
	case *LogisticRegression:
		return ModelLogistic
	case *RandomForest:
		return ModelForest
	case *SVC:
		return ModelSVC
	case *KNN:
		return ModelKNN
	default:
		return "unknown"
	}
}

// NewModel creates a classifier by name.
func NewModel(name string, params model.Params) (Classifier, error) {
	switch name {
	case ModelLogistic:
		return NewLogisticRegression(params), nil
	case ModelForest:
		return NewRandomForest(params), nil
	case ModelSVC:
		return NewSVC(params), nil
	case ModelKNN:
		return NewKNN(params), nil
	}
	return nil, errors.NotFoundf("model %v", name)
}
