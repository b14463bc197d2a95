package hikesync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeStats_CountsHikesObservationsAndImages(t *testing.T) {
	local := newFakeLocal()
	local.addHike(seedHike("h1", "guest-1", "One", "img/a.jpg", "img/b.jpg"),
		seedObservation("o1", "h1", "img/c.jpg"))
	local.addHike(seedHike("h2", "guest-1", "Two"),
		seedObservation("o2", "h2"), seedObservation("o3", "h2", "img/d.jpg"))

	files := newFakeFiles()
	files.sizes["img/a.jpg"] = 100
	files.sizes["img/b.jpg"] = 250
	files.sizes["img/c.jpg"] = 50
	// img/d.jpg missing on disk: counted as an image, contributes zero bytes.

	calc := NewStatsCalculator(local, files, nil)
	stats, err := calc.ComputeStats(context.Background(), "guest-1")
	require.NoError(t, err)

	require.Equal(t, 2, stats.TotalHikes)
	require.Equal(t, 3, stats.TotalObservations)
	require.Equal(t, 4, stats.TotalImages)
	require.Equal(t, int64(400), stats.TotalImageBytes)
	require.False(t, stats.IsEmpty())
}

func TestComputeStats_EmptyGuest(t *testing.T) {
	calc := NewStatsCalculator(newFakeLocal(), newFakeFiles(), nil)
	stats, err := calc.ComputeStats(context.Background(), "guest-1")
	require.NoError(t, err)
	require.True(t, stats.IsEmpty())
}

func TestComputeStats_SyncedHikesAreExcluded(t *testing.T) {
	local := newFakeLocal()
	synced := seedHike("h1", "guest-1", "Done", "img/a.jpg")
	synced.Synced = true
	local.addHike(synced)
	local.addHike(seedHike("h2", "guest-1", "Pending"))

	calc := NewStatsCalculator(local, newFakeFiles(), nil)
	stats, err := calc.ComputeStats(context.Background(), "guest-1")
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalHikes)
	require.Equal(t, 0, stats.TotalImages)
}

func TestComputeStats_ReadFailureReturnsNoPartialStats(t *testing.T) {
	local := newFakeLocal()
	local.addHike(seedHike("h1", "guest-1", "One"))
	local.listObsErr["h1"] = errors.New("disk I/O error")

	calc := NewStatsCalculator(local, newFakeFiles(), nil)
	stats, err := calc.ComputeStats(context.Background(), "guest-1")
	require.Error(t, err)
	require.Nil(t, stats)
	require.Contains(t, err.Error(), "h1")
}

func TestComputeStats_FileLookupErrorsContributeZeroBytes(t *testing.T) {
	local := newFakeLocal()
	local.addHike(seedHike("h1", "guest-1", "One", "img/a.jpg"))
	files := newFakeFiles()
	files.existsErr["img/a.jpg"] = errors.New("permission denied")

	calc := NewStatsCalculator(local, files, nil)
	stats, err := calc.ComputeStats(context.Background(), "guest-1")
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalImages)
	require.Equal(t, int64(0), stats.TotalImageBytes)
}
