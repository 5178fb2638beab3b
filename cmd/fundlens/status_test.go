package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fundlens/fundlens/internal/warehouse"
)

func TestFormatCheckpoints_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatCheckpoints(&buf, nil, nil)

	assert.Contains(t, buf.String(), "No extraction checkpoints")
}

func TestFormatCheckpoints_BothSources(t *testing.T) {
	ts := time.Date(2025, 6, 1, 9, 15, 0, 0, time.UTC)

	var buf bytes.Buffer
	formatCheckpoints(&buf,
		[]warehouse.FECCheckpoint{{
			CommitteeID:     "C00401224",
			ElectionCycle:   2024,
			LastPage:        42,
			TotalExtracted:  4200,
			LastExtractedAt: &ts,
			IsComplete:      false,
		}},
		[]warehouse.MDCheckpoint{{
			DataType:       "contributions",
			FilingYear:     2024,
			TotalExtracted: 9000,
			IsComplete:     true,
		}},
	)

	output := buf.String()
	assert.Contains(t, output, "fec/C00401224/2024")
	assert.Contains(t, output, "2025-06-01 09:15")
	assert.Contains(t, output, "md/contributions/2024")
	assert.Contains(t, output, "9000")
	assert.Contains(t, output, "true")
}

func TestFormatRuns(t *testing.T) {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	completed := started.Add(3 * time.Minute)

	var buf bytes.Buffer
	formatRuns(&buf, []warehouse.RunEntry{
		{
			Pass:        "ingest",
			Partition:   "fec/C00401224/2024",
			Status:      warehouse.StatusComplete,
			StartedAt:   started,
			CompletedAt: &completed,
			Rows:        4200,
		},
		{
			Pass:      "resolve",
			Partition: "all",
			Status:    warehouse.StatusFailed,
			StartedAt: started,
			Error:     "gold: resolve candidates: connection refused",
		},
	})

	output := buf.String()
	assert.Contains(t, output, "ingest")
	assert.Contains(t, output, "3m0s")
	assert.Contains(t, output, "4200")
	assert.Contains(t, output, "connection refused")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))
	assert.Equal(t, "this is...", truncate("this is a long message", 10))
}
