// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Clustering modes.
const (
	// ModeArchetypes assigns every record to one of K named archetype
	// clusters with per-cluster occupancy floors.
	ModeArchetypes = "archetypes"

	// ModeSplit labels records Ready/Not Ready against a single ideal
	// profile with one global Ready floor.
	ModeSplit = "split"
)

// ProfileConfig declares one archetype cluster.
type ProfileConfig struct {
	// Name is the cluster label.
	Name string `koanf:"name"`

	// Penalty is the additive objective bias for assignments to this
	// cluster; zero for ordinary clusters.
	Penalty float64 `koanf:"penalty"`

	// Ideal maps feature name to the archetype's reference value.
	Ideal map[string]float64 `koanf:"ideal"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Input and Output are the dataset paths.
	Input  string `koanf:"input"`
	Output string `koanf:"output"`

	// MetricsAddr optionally exposes /metrics while a run is active,
	// e.g. ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// Mode selects the clustering variant: archetypes or split.
	Mode string `koanf:"mode"`

	// WorkerCount sets the number of distance workers.
	WorkerCount int `koanf:"worker_count"`

	// SolveTimeoutMS bounds the assignment solve; 0 means no deadline.
	SolveTimeoutMS int `koanf:"solve_timeout_ms"`

	// MinClusterSize overrides the derived max(1, N/K) floor when > 0.
	MinClusterSize int `koanf:"min_cluster_size"`

	// MinReady is the global Ready floor used by split mode.
	MinReady int `koanf:"min_ready"`

	// NameColumn is the display-name column passed through untouched.
	NameColumn string `koanf:"name_column"`

	// Profiles declares the archetype clusters in output order.
	Profiles []ProfileConfig `koanf:"profiles"`

	// FeatureWeights is the per-feature multiplier table applied by
	// split mode's single-profile distance.
	FeatureWeights map[string]float64 `koanf:"feature_weights"`
}

// New creates a Config with the stock artist readiness archetypes.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Input:       "artist_data.csv",
		Output:      "clustered_artists.csv",
		Mode:        ModeArchetypes,
		WorkerCount: runtime.NumCPU(),
		MinReady:    5,
		NameColumn:  "Artist Name",
		Profiles: []ProfileConfig{
			{
				Name: "Ready",
				Ideal: map[string]float64{
					"Number of Songs (Spotify)":               3,
					"Monthly listeners (Spotify)":             5000,
					"Total Streams (Spotify)":                 10000,
					"Fan Retention Rate (Spotify)":            10,
					"Playlist Reach (Spotify)":                10000,
					"Platform Playlists appearence (Spotify)": 1,
					"Non-platform playlists (Spotify)":        50,
					"Spotify Following":                       1000,
					"Instagram Following":                     1000,
					"TikTok Following":                        10000,
				},
			},
			{
				Name: "Potential",
				Ideal: map[string]float64{
					"Number of Songs (Spotify)":               2,
					"Monthly listeners (Spotify)":             2000,
					"Total Streams (Spotify)":                 5000,
					"Fan Retention Rate (Spotify)":            5,
					"Playlist Reach (Spotify)":                5000,
					"Platform Playlists appearence (Spotify)": 0,
					"Non-platform playlists (Spotify)":        20,
					"Spotify Following":                       500,
					"Instagram Following":                     500,
					"TikTok Following":                        5000,
				},
			},
			{
				Name:    "Not Ready",
				Penalty: 10,
				Ideal: map[string]float64{
					"Number of Songs (Spotify)":               0,
					"Monthly listeners (Spotify)":             0,
					"Total Streams (Spotify)":                 0,
					"Fan Retention Rate (Spotify)":            0,
					"Playlist Reach (Spotify)":                0,
					"Platform Playlists appearence (Spotify)": 0,
					"Non-platform playlists (Spotify)":        0,
					"Spotify Following":                       0,
					"Instagram Following":                     0,
					"TikTok Following":                        0,
				},
			},
		},
		FeatureWeights: map[string]float64{
			"Number of Songs (Spotify)":               1,
			"Monthly listeners (Spotify)":             2,
			"Total Streams (Spotify)":                 2,
			"Fan Retention Rate (Spotify)":            1.5,
			"Playlist Reach (Spotify)":                1.5,
			"Platform Playlists appearence (Spotify)": 1,
			"Non-platform playlists (Spotify)":        1,
			"Spotify Following":                       1,
			"Instagram Following":                     1,
			"TikTok Following":                        1,
		},
	}
}
