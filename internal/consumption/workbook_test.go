package consumption

import (
	"testing"

	"github.com/jifmar/fleetwatch/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearFromName(t *testing.T) {
	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{"Consomation_2023.xlsx", 2023, false},
		{"/data/conso/Consomation_1999.xlsx", 1999, false},
		{"Consomation_abcd.xlsx", 0, true},
		{"Consomation_23.xlsx", 0, true},
		{"Consommation_2023.xlsx", 0, true},
		{"Consomation_2023.xls", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := YearFromName(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoYear)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWorkbook(t *testing.T) {
	rows := make([][]string, 23)
	rows[1] = []string{"", "JIF GYPTIS", "", "JIF LACYDON"}
	rows[4] = []string{"Janvier", "10,5", "", "7"}
	rows[5] = []string{"février", "", "", "8"}
	rows[18] = []string{"Total", "1234,5", "", "99"}
	rows[22] = []string{"L/mille", "#DIV/0!", "", "3,5"}

	wb := ParseWorkbook(2023, sheet.NewGrid("Feuil1", rows), sheet.DefaultLayout())

	assert.Equal(t, 2023, wb.Year)
	require.Len(t, wb.Annual, 2)
	assert.Equal(t, "JIF GYPTIS", wb.Annual[0].Ship)
	assert.Equal(t, 2023, wb.Annual[0].Year)
	assert.Equal(t, 1234.5, wb.Annual[0].TotalM3)
	assert.Equal(t, 0.0, wb.Annual[0].LPerMile)
	assert.Equal(t, "JIF LACYDON", wb.Annual[1].Ship)
	assert.Equal(t, 99.0, wb.Annual[1].TotalM3)
	assert.Equal(t, 3.5, wb.Annual[1].LPerMile)

	require.Len(t, wb.Monthly, 4)
	assert.Equal(t, "Janvier", wb.Monthly[0].Month)
	assert.Equal(t, "JIF GYPTIS", wb.Monthly[0].Ship)
	assert.Equal(t, 10.5, wb.Monthly[0].TotalM3)
	assert.Equal(t, 7.0, wb.Monthly[1].TotalM3)
	assert.Equal(t, "Février", wb.Monthly[2].Month)
	assert.Equal(t, 0.0, wb.Monthly[2].TotalM3)
	assert.Equal(t, 8.0, wb.Monthly[3].TotalM3)
}

func TestParseWorkbook_NoShips(t *testing.T) {
	rows := [][]string{{"titre"}, {""}, {""}, {""}, {"Janvier", "1"}}

	wb := ParseWorkbook(2021, sheet.NewGrid("Feuil1", rows), sheet.DefaultLayout())

	assert.Empty(t, wb.Annual)
	assert.Empty(t, wb.Monthly)
}
