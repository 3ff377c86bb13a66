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
	"sort"

	"github.com/teasel-io/teasel/base/copier"
	"github.com/teasel-io/teasel/base/parallel"
	"modernc.org/sortutil"
)

const evaluatorBatchSize = 128

// EvaluateClassification evaluates a classifier on a test set. Decision
// values are grouped by true label, so each metric only needs the two groups.
func EvaluateClassification(estimator Classifier, testSet *Dataset) Score {
	return EvaluateClassificationParallel(estimator, testSet, 1)
}

// EvaluateClassificationParallel evaluates a classifier on a test set with
// multiple workers. The result is the same for any number of jobs.
func EvaluateClassificationParallel(estimator Classifier, testSet *Dataset, jobs int) Score {
	if 0 == testSet.Count() {
		return Score{}
	}
	decisions := make([]float32, testSet.Count())
	_ = parallel.BatchParallel(testSet.Count(), jobs, evaluatorBatchSize, func(_, begin, end int) error {
		for i := begin; i < end; i++ {
			x, _ := testSet.Get(i)
			decisions[i] = estimator.DecisionFunction(x)
		}
		return nil
	})
	var posPrediction, negPrediction []float32
	for i := 0; i < testSet.Count(); i++ {
		_, y := testSet.Get(i)
		if y > 0 {
			posPrediction = append(posPrediction, decisions[i])
		} else {
			negPrediction = append(negPrediction, decisions[i])
		}
	}
	precision := Precision(posPrediction, negPrediction)
	recall := Recall(posPrediction, negPrediction)
	return Score{
		Accuracy:  Accuracy(posPrediction, negPrediction),
		Precision: precision,
		Recall:    recall,
		F1:        F1(precision, recall),
		AUC:       AUC(posPrediction, negPrediction),
	}
}

// Precision returns tp / (tp + fp), or 0 if no sample is predicted positive.
func Precision(posPrediction, negPrediction []float32) float32 {
	var tp, fp float32
	for _, p := range posPrediction {
		if p > 0 { // true positive
			tp++
		}
	}
	for _, p := range negPrediction {
		if p > 0 { // false positive
			fp++
		}
	}
	if tp+fp == 0 {
		return 0
	}
	return tp / (tp + fp)
}

// Recall returns tp / (tp + fn), or 0 if the test set has no positive sample.
func Recall(posPrediction, _ []float32) float32 {
	var tp, fn float32
	for _, p := range posPrediction {
		if p > 0 { // true positive
			tp++
		} else { // false negative
			fn++
		}
	}
	if tp+fn == 0 {
		return 0
	}
	return tp / (tp + fn)
}

func Accuracy(posPrediction, negPrediction []float32) float32 {
	var correct float32
	for _, p := range posPrediction {
		if p > 0 {
			correct++
		}
	}
	for _, p := range negPrediction {
		if p <= 0 {
			correct++
		}
	}
	if len(posPrediction)+len(negPrediction) == 0 {
		return 0
	}
	return correct / float32(len(posPrediction)+len(negPrediction))
}

// F1 returns the harmonic mean of precision and recall, or 0 if both are 0.
func F1(precision, recall float32) float32 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func AUC(posPrediction, negPrediction []float32) float32 {
	sort.Sort(sortutil.Float32Slice(posPrediction))
	sort.Sort(sortutil.Float32Slice(negPrediction))
	var sum float32
	var nPos int
	for pPos := range posPrediction {
		// find the negative sample with the greatest prediction less than current positive sample
		for nPos < len(negPrediction) && negPrediction[nPos] < posPrediction[pPos] {
			nPos++
		}
		// add the number of negative samples have less prediction than current positive sample
		sum += float32(nPos)
	}
	if len(posPrediction)*len(negPrediction) == 0 {
		return 0
	}
	return sum / float32(len(posPrediction)*len(negPrediction))
}

// SnapshotManger manages the best snapshot.
type SnapshotManger struct {
	BestWeights []interface{}
	BestScore   Score
}

// AddSnapshot adds a copied snapshot.
func (sm *SnapshotManger) AddSnapshot(score Score, weights ...interface{}) {
	if sm.BestWeights == nil || score.BetterThan(sm.BestScore) {
		sm.BestScore = score
		if err := copier.Copy(&sm.BestWeights, weights); err != nil {
			panic(err)
		}
	}
}
