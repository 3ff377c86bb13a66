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

	"github.com/teasel-io/teasel/base/log"
	"github.com/teasel-io/teasel/base/progress"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
)

// NamedCreator pairs a model name with its factory.
type NamedCreator struct {
	Name   string
	Create func() Classifier
}

// DefaultBank returns the candidate models in their fixed evaluation order.
// Every call returns a fresh slice, so mutating the result never affects
// later calls.
func DefaultBank() []NamedCreator {
	return []NamedCreator{
		{Name: ModelLogistic, Create: func() Classifier { return NewLogisticRegression(nil) }},
		{Name: ModelForest, Create: func() Classifier { return NewRandomForest(nil) }},
		{Name: ModelSVC, Create: func() Classifier { return NewSVC(nil) }},
		{Name: ModelKNN, Create: func() Classifier { return NewKNN(nil) }},
	}
}

// BankResult is the evaluation outcome of one bank entry.
type BankResult struct {
	Name  string
	Score Score
	Err   error
}

// EvaluateBank fits every model in the bank on the train set and evaluates it
// on the test set. Results follow the bank order. A failed model is recorded
// in its result and never stops the remaining models.
func EvaluateBank(ctx context.Context, bank []NamedCreator, trainSet, testSet *Dataset, config *FitConfig) []BankResult {
	newCtx, span := progress.Start(ctx, "EvaluateBank", len(bank))
	results := make([]BankResult, 0, len(bank))
	for _, entry := range bank {
		estimator := entry.Create()
		score, err := estimator.Fit(newCtx, trainSet, testSet, config)
		if err != nil {
			log.Logger().Error("failed to fit model",
				zap.String("model", entry.Name), zap.Error(err))
		}
		results = append(results, BankResult{Name: entry.Name, Score: score, Err: err})
		span.Add(1)
	}
	span.End()
	return results
}

// BankParams returns hyper-parameter overrides applied to a bank entry, keyed
// by model name. Entries without overrides get default hyper-parameters.
func BankParams(bank []NamedCreator, overrides map[string]model.Params) []NamedCreator {
	patched := make([]NamedCreator, 0, len(bank))
	for _, entry := range bank {
		params, ok := overrides[entry.Name]
		if !ok {
			patched = append(patched, entry)
			continue
		}
		patched = append(patched, NamedCreator{
			Name: entry.Name,
			Create: func() Classifier {
				estimator := entry.Create()
				estimator.SetParams(estimator.GetParams().Overwrite(params))
				return estimator
			},
		})
	}
	return patched
}
