// Package result merges computed distances and cluster labels back onto
// records for external output.
package result

import (
	"strconv"

	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/profile"
)

// Assembler owns the output column contract: original columns first, in
// their input order, then one distance column per profile in registry
// order, then the cluster label.
type Assembler struct {
	registry *profile.Registry
}

// New creates an Assembler for a registry.
func New(registry *profile.Registry) *Assembler {
	return &Assembler{registry: registry}
}

// Header returns the output header for the given input columns.
func (a *Assembler) Header(inputColumns []string) []string {
	header := make([]string, 0, len(inputColumns)+a.registry.Len()+1)
	header = append(header, inputColumns...)
	for _, name := range a.registry.Names() {
		header = append(header, model.DistanceField(name))
	}
	header = append(header, model.ClusterField)
	return header
}

// Row renders one record against the given input columns. Original
// cells pass through untouched from the record's raw view.
func (a *Assembler) Row(rec *model.Record, inputColumns []string) []string {
	row := make([]string, 0, len(inputColumns)+a.registry.Len()+1)
	for _, col := range inputColumns {
		row = append(row, rec.Raw[col])
	}
	for _, name := range a.registry.Names() {
		row = append(row, strconv.FormatFloat(rec.Distance(name), 'g', -1, 64))
	}
	row = append(row, rec.Cluster)
	return row
}
