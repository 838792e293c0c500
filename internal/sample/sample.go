// Package sample generates the demonstration dataset shown before any
// file has been uploaded.
package sample

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

// DefaultRows is the size of the demonstration dataset.
const DefaultRows = 20

// Headers is the schema of the sample dataset.
var Headers = dataset.Schema{"firstName", "lastName", "mobile", "email", "package", "date"}

// Generate returns n deterministic rows. Every seventh row carries a mobile
// number mangled into scientific notation, package cycles through
// multiples of 512, and every ninth row starts out invalid. n <= 0 selects
// DefaultRows.
func Generate(n int) (dataset.Schema, dataset.Dataset) {
	if n <= 0 {
		n = DefaultRows
	}
	rows := make(dataset.Dataset, n)
	for i := range rows {
		mobile := "07" + strconv.Itoa(10000000+i)
		if i%7 == 0 {
			mobile = "2.55E+11"
		}
		status := dataset.Valid
		if i%9 == 0 {
			status = dataset.Invalid
		}
		rows[i] = dataset.Row{
			ID:     fmt.Sprintf("row-%d", i+1),
			Status: status,
			Values: map[string]dataset.Value{
				"firstName": dataset.String(fmt.Sprintf("John %d", i+1)),
				"lastName":  dataset.String("Doe"),
				"mobile":    dataset.String(mobile),
				"email":     dataset.String(fmt.Sprintf("user%d@example.com", i+1)),
				"package":   dataset.Number(float64((i % 5) * 512)),
				"date":      dataset.String("2024-11-01"),
			},
		}
	}
	return append(dataset.Schema{}, Headers...), rows
}
