package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDistance(t *testing.T) *DistanceDB {
	t.Helper()
	db, err := OpenDistance(filepath.Join(t.TempDir(), "distance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSamples() []models.DistanceSample {
	t0 := time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)
	return []models.DistanceSample{
		{Vessel: "JIF LACYDON", Timestamp: t0, Distance: 0, Latitude: 43.0, Longitude: 5.0},
		{Vessel: "JIF LACYDON", Timestamp: t0.Add(time.Hour), Distance: 7.43, Latitude: 43.1, Longitude: 5.1},
		{Vessel: "JIF GYPTIS", Timestamp: t0.AddDate(1, 0, 0), Distance: 0, Latitude: 42.0, Longitude: 3.0},
	}
}

func TestDistanceDB_InsertSamplesIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDistance(t)

	n, err := db.InsertSamples(ctx, testSamples())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = db.InsertSamples(ctx, testSamples())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDistanceDB_ListSamples(t *testing.T) {
	ctx := context.Background()
	db := openTestDistance(t)

	_, err := db.InsertSamples(ctx, testSamples())
	require.NoError(t, err)

	all, err := db.ListSamples(ctx, DistanceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC), all[0].Timestamp)
	assert.Equal(t, 7.43, all[1].Distance)

	lacydon, err := db.ListSamples(ctx, DistanceFilter{Vessels: []string{"JIF LACYDON"}})
	require.NoError(t, err)
	assert.Len(t, lacydon, 2)

	in2024, err := db.ListSamples(ctx, DistanceFilter{FromYear: 2024, ToYear: 2024})
	require.NoError(t, err)
	require.Len(t, in2024, 1)
	assert.Equal(t, "JIF GYPTIS", in2024[0].Vessel)

	upTo2023, err := db.ListSamples(ctx, DistanceFilter{ToYear: 2023})
	require.NoError(t, err)
	assert.Len(t, upTo2023, 2)

	vessels, err := db.Vessels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"JIF GYPTIS", "JIF LACYDON"}, vessels)
}
