package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Increments(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	fixes := []Fix{
		{Time: t1, Lat: 43.1, Lon: 5.1},
		{Time: t0, Lat: 43.0, Lon: 5.0},
	}

	samples := Derive("JIF LACYDON", fixes, SamplingPolicy{})

	require.Len(t, samples, 2)
	assert.Equal(t, "JIF LACYDON", samples[0].Vessel)
	assert.Equal(t, t0, samples[0].Timestamp)
	assert.Equal(t, 0.0, samples[0].Distance)
	assert.Equal(t, 43.0, samples[0].Latitude)
	assert.Equal(t, t1, samples[1].Timestamp)
	assert.InDelta(t, 7.4363, samples[1].Distance, 0.001)
	assert.Equal(t, 5.1, samples[1].Longitude)
}

func TestDerive_StableForEqualTimestamps(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	fixes := []Fix{
		{Time: ts, Lat: 43.0, Lon: 5.0},
		{Time: ts, Lat: 44.0, Lon: 5.0},
	}

	samples := Derive("JIF GYPTIS", fixes, SamplingPolicy{})

	require.Len(t, samples, 2)
	assert.Equal(t, 43.0, samples[0].Latitude)
	assert.Equal(t, 44.0, samples[1].Latitude)
	assert.InDelta(t, 60.04, samples[1].Distance, 0.01)
}

func TestDerive_SampledIncrementsComeFromTheFullTrack(t *testing.T) {
	fixes := []Fix{
		{Time: day(1, 0), Lat: 43.0, Lon: 5.0},
		{Time: day(1, 6), Lat: 43.5, Lon: 5.0},
		{Time: day(2, 0), Lat: 44.0, Lon: 5.0},
		{Time: day(3, 0), Lat: 44.1, Lon: 5.0},
	}

	samples := Derive("JIF SURVEYOR", fixes, DefaultSampling())

	require.Len(t, samples, 2)
	assert.Equal(t, day(1, 0), samples[0].Timestamp)
	assert.Equal(t, 0.0, samples[0].Distance)
	assert.Equal(t, day(3, 0), samples[1].Timestamp)
	assert.InDelta(t, 6.004, samples[1].Distance, 0.01)
}

func TestDerive_Empty(t *testing.T) {
	assert.Empty(t, Derive("JIF GYPTIS", nil, DefaultSampling()))
}

func TestDerive_DoesNotReorderInput(t *testing.T) {
	fixes := []Fix{{Time: day(2, 0)}, {Time: day(1, 0)}}

	Derive("JIF GYPTIS", fixes, SamplingPolicy{})

	assert.Equal(t, day(2, 0), fixes[0].Time)
}
