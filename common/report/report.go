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

// Package report renders evaluation results as text tables.
package report

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
)

// Record is one table row: a model name with its metric values.
type Record struct {
	Name    string
	Metrics map[string]float32
}

// Columns returns the default metric columns in reporting order.
func Columns() []string {
	return []string{"accuracy", "precision", "recall", "f1", "auc"}
}

// Render writes records as a table with a model column followed by one column
// per metric. Every record must carry exactly the requested metrics.
func Render(w io.Writer, columns []string, records []Record) error {
	for _, record := range records {
		if len(record.Metrics) != len(columns) {
			return errors.BadRequestf("record %s has %d metrics, expected %d",
				record.Name, len(record.Metrics), len(columns))
		}
		for _, column := range columns {
			if _, exist := record.Metrics[column]; !exist {
				return errors.BadRequestf("record %s misses metric %s", record.Name, column)
			}
		}
	}
	table := tablewriter.NewWriter(w)
	table.Header(append([]string{"model"}, columns...))
	for _, record := range records {
		row := make([]string, 0, len(columns)+1)
		row = append(row, record.Name)
		for _, column := range columns {
			row = append(row, fmt.Sprintf("%.4f", record.Metrics[column]))
		}
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
