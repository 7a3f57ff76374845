// Package testdata generates synthetic artist datasets for exercising
// the clustering pipeline end to end.
package testdata

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/encore/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	tierDivisor        = 8
	anomalyKindDivisor = 2
)

// Constants for tier multiplier ranges, as fractions of the reference
// ceiling for each feature.
const (
	readyMin       = 0.8
	readyRange     = 0.4
	potentialMin   = 0.3
	potentialRange = 0.3
	dormantMin     = 0.0
	dormantRange   = 0.15
	wideMin        = 0.0
	wideRange      = 1.2
)

// Constants for tier cases.
const (
	caseReady = iota
	caseReadyHigh
	casePotential
	casePotentialLow
	caseDormant
	caseDormantQuiet
	caseWide
	caseWideSpread
)

// NameColumn is the display-name header of generated files.
const NameColumn = "Artist Name"

// featureColumns lists the generated feature headers with the reference
// ceiling each tier multiplier scales against.
var featureColumns = []struct {
	name    string
	ceiling float64
}{
	{"Number of Songs (Spotify)", 3},
	{"Monthly listeners (Spotify)", 5000},
	{"Total Streams (Spotify)", 10000},
	{"Fan Retention Rate (Spotify)", 10},
	{"Playlist Reach (Spotify)", 10000},
	{"Platform Playlists appearence (Spotify)", 1},
	{"Non-platform playlists (Spotify)", 50},
	{"Spotify Following", 1000},
	{"Instagram Following", 1000},
	{"TikTok Following", 10000},
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// Run generates the configured dataset and writes it as CSV.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Get().Named("testdata")
	log.Info(ctx, "generating artist dataset",
		logger.Int("records", cfg.NumRecords),
		logger.Float64("anomalyRate", cfg.AnomalyRate),
		logger.String("output", cfg.Output),
	)

	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	w := csv.NewWriter(f)

	header := make([]string, 0, len(featureColumns)+1)
	header = append(header, NameColumn)
	for _, col := range featureColumns {
		header = append(header, col.name)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	anomalies := 0
	for i := 0; i < cfg.NumRecords; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("generation canceled: %w", ctx.Err())
		default:
		}

		row, rowAnomalies := generateRow(i, cfg.AnomalyRate)
		anomalies += rowAnomalies
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	log.Info(ctx, "dataset written",
		logger.Int("records", cfg.NumRecords),
		logger.Int("anomalousCells", anomalies),
	)
	return nil
}

// generateRow produces one artist row in one readiness tier, injecting
// malformed cells at the configured rate. Returns the row and the
// number of anomalous cells.
func generateRow(index int, anomalyRate float64) ([]string, int) {
	row := make([]string, 0, len(featureColumns)+1)
	row = append(row, "artist_"+strconv.Itoa(index)+"_"+uuid.New().String()[:8])

	tierMin, tierRange := tierBounds()
	anomalies := 0
	for _, col := range featureColumns {
		if anomalyRate > 0 && getRandomFloat() < anomalyRate {
			row = append(row, anomalousCell())
			anomalies++
			continue
		}
		v := col.ceiling * (tierMin + getRandomFloat()*tierRange)
		row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
	}
	return row, anomalies
}

// tierBounds picks a readiness tier with varied distribution.
func tierBounds() (min, spread float64) {
	n, _ := rand.Int(rand.Reader, big.NewInt(tierDivisor))
	switch n.Int64() {
	case caseReady, caseReadyHigh:
		// Established acts near or above the readiness reference.
		return readyMin, readyRange
	case casePotential, casePotentialLow:
		// Growing acts between dormant and ready.
		return potentialMin, potentialRange
	case caseDormant, caseDormantQuiet:
		// Barely active acts near zero.
		return dormantMin, dormantRange
	case caseWide, caseWideSpread:
		return wideMin, wideRange
	default:
		return wideMin, wideRange
	}
}

// anomalousCell returns one of the malformed values real exports
// contain: an empty cell or a non-numeric placeholder.
func anomalousCell() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(anomalyKindDivisor))
	if n.Int64() == 0 {
		return ""
	}
	return "N/A"
}
