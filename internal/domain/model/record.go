// Package model contains domain models passed between pipeline stages.
package model

import "math"

// DistanceFieldPrefix is the naming convention for per-profile distance
// columns attached to a record.
const DistanceFieldPrefix = "Distance_to_"

// DistanceField returns the output column name for a profile's distance.
func DistanceField(profileName string) string {
	return DistanceFieldPrefix + profileName
}

// ClusterField is the output column holding the final cluster label.
const ClusterField = "Cluster"

// Record represents one artist row flowing through the pipeline.
//
// Features holds the numeric view of the row: a feature absent from the
// map is treated as 0 by the distance calculator, and a feature present
// with a NaN value marks a raw cell that could not be interpreted as a
// number. Raw keeps every original cell untouched for the writer.
type Record struct {
	// Name is the optional display name; it passes through untouched.
	Name string

	// Features maps feature name to numeric value. NaN marks a present
	// but non-numeric value.
	Features map[string]float64

	// Raw preserves the original string cells keyed by column name.
	Raw map[string]string

	// Distances holds one normalized distance per profile name,
	// populated by the calculator and rescaled by the normalizer.
	Distances map[string]float64

	// Cluster is the final label, one of the registered profile names.
	Cluster string
}

// NewRecord creates an empty record ready for annotation.
func NewRecord() *Record {
	return &Record{
		Features:  make(map[string]float64),
		Raw:       make(map[string]string),
		Distances: make(map[string]float64),
	}
}

// Feature returns the numeric value for a feature and whether the value
// is usable. A missing feature yields (0, true): absence is defined as
// zero, never an error. A present but non-numeric feature yields
// (NaN, false) so callers can apply their anomaly policy.
func (r *Record) Feature(name string) (float64, bool) {
	v, ok := r.Features[name]
	if !ok {
		return 0, true
	}
	if math.IsNaN(v) {
		return v, false
	}
	return v, true
}

// SetDistance records the (raw or normalized) distance to a profile.
func (r *Record) SetDistance(profileName string, d float64) {
	r.Distances[profileName] = d
}

// Distance returns the stored distance to a profile.
func (r *Record) Distance(profileName string) float64 {
	return r.Distances[profileName]
}
