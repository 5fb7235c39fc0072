package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat_savings/internal/cert"
	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/season"
	"thermostat_savings/internal/stats"
)

func TestArchiveSaveAndListRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	archive, err := OpenArchive(path)
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()
	v := 12.0
	run := Run{
		ID:          "run-1",
		CreatedAt:   time.Date(2018, 9, 1, 12, 0, 0, 0, time.UTC),
		Thermostats: 2,
		Records:     2,
		Failures:    0,
	}
	records := []metrics.Record{validRecord(), excludedRecord()}
	summaries := []stats.Summary{{
		Key:            stats.Key{SeasonKind: season.Cooling, EquipmentClass: "central_ac"},
		InputCount:     2,
		IncludedCount:  1,
		ExcludedCount:  1,
		PercentSavings: stats.Distribution{Mean: 12.5, P50: 12.5},
	}}
	certification := &cert.Certification{
		ProductID: "prod-1",
		AllPassed: true,
		Results: []cert.Result{{
			Threshold: cert.Threshold{
				EquipmentClass: "central_ac", SeasonKind: season.Cooling,
				Percentile: 50, MinSavings: 10,
			},
			Value:  &v,
			Passed: true,
		}},
	}

	require.NoError(t, archive.SaveRun(ctx, run, records, summaries, certification))

	runs, err := archive.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 2, runs[0].Thermostats)
	assert.True(t, run.CreatedAt.Equal(runs[0].CreatedAt))
}

func TestArchiveMultipleRunsNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	archive, err := OpenArchive(path)
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()
	base := time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new"} {
		run := Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, archive.SaveRun(ctx, run, nil, nil, nil))
	}

	runs, err := archive.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)
}

func TestArchiveDuplicateRunIDRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	archive, err := OpenArchive(path)
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()
	run := Run{ID: "run-1", CreatedAt: time.Now()}
	require.NoError(t, archive.SaveRun(ctx, run, nil, nil, nil))
	assert.Error(t, archive.SaveRun(ctx, run, nil, nil, nil))
}
