package track

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2023-03-04 05:06:07", time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{" 2023-03-04T05:06:07 ", time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"2023-03-04T05:06:07+02:00", time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"2023-03-04 05:06", time.Date(2023, 3, 4, 5, 6, 0, 0, time.UTC), true},
		{"04/03/2023 05:06:07", time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"04/03/2023 05:06", time.Date(2023, 3, 4, 5, 6, 0, 0, time.UTC), true},
		{"2023/03/04 05:06:07", time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"2023-03-04", time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"04/03/2023", time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"NaN", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := "Date; Latitude ;Longitude;Speed\n" +
		"2023-01-01 00:00:00;43,0;5,0;12\n" +
		"2023-01-01 01:00:00;43.1;5.1;12\n" +
		"not a date;43;5;1\n" +
		"2023-01-02 00:00:00;;5;3\n" +
		"02/01/2023 12:00;43,2;5,2\n"

	f, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 5, f.Rows)
	assert.Equal(t, 1, f.BadTimestamps)
	assert.Equal(t, 1, f.BadCoordinates)
	assert.Equal(t, 2, f.Dropped())
	require.Len(t, f.Fixes, 3)
	assert.Equal(t, Fix{Time: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Lat: 43, Lon: 5}, f.Fixes[0])
	assert.Equal(t, 43.1, f.Fixes[1].Lat)
	assert.Equal(t, time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC), f.Fixes[2].Time)
}

func TestParse_BOM(t *testing.T) {
	data := "\xEF\xBB\xBFDate;Latitude;Longitude\n2023-01-01 00:00:00;43;5\n"

	f, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, f.Fixes, 1)
}

func TestParse_Windows1252(t *testing.T) {
	data := "Date;Latitude;Longitude;Escale\n2023-01-01 00:00:00;43;5;Marseille \xe9t\xe9\n"

	f, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, f.Fixes, 1)
	assert.Equal(t, 43.0, f.Fixes[0].Lat)
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := Parse([]byte("Date;Lat;Lon\n2023-01-01;43;5\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Latitude")

	_, err = Parse(nil)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestParse_RepeatedColumnKeepsFirst(t *testing.T) {
	data := "Date;Latitude;Longitude;Latitude;;\n" +
		"2023-01-01 08:00:00;43,0;5,0;99;x;y\n"

	f, err := Parse([]byte(data))
	require.NoError(t, err)

	require.Len(t, f.Fixes, 1)
	assert.Equal(t, 43.0, f.Fixes[0].Lat)
	assert.Equal(t, 5.0, f.Fixes[0].Lon)
}

func TestParse_HeaderOnly(t *testing.T) {
	f, err := Parse([]byte("Date;Latitude;Longitude\n"))
	require.NoError(t, err)
	assert.Empty(t, f.Fixes)
	assert.Zero(t, f.Rows)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date;Latitude;Longitude\n2023-01-01 00:00:00;43;5\n"), 0644))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Fixes, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
