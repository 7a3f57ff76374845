package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/encore/internal/testdata"
	"github.com/okian/encore/pkg/logger"
)

const generationTimeout = 5 * time.Minute

func main() {
	var (
		numRecords  = flag.Int("records", testdata.DefaultNumRecords, "Number of artist rows to generate")
		output      = flag.String("output", "artist_data.csv", "Output CSV file")
		anomalyRate = flag.Float64("anomaly", testdata.DefaultAnomalyRate, "Per-cell probability of a malformed value")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	cfg := &testdata.Config{
		NumRecords:  *numRecords,
		Output:      *output,
		AnomalyRate: *anomalyRate,
	}

	if err := testdata.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
