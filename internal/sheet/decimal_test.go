package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimalOrDefault(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want float64
	}{
		{"plain number", "1234.5", 1234.5},
		{"comma decimal", "1234,5", 1234.5},
		{"surrounding spaces", "  12,25 ", 12.25},
		{"french grouping", "1 234,5", 1234.5},
		{"non-breaking grouping", "1\u00a0234,5", 1234.5},
		{"negative", "-3,5", -3.5},
		{"integer", "42", 42},
		{"empty", "", 0},
		{"blank", "   ", 0},
		{"div by zero marker", "#DIV/0!", 0},
		{"na marker", "#N/A", 0},
		{"text", "n/a", 0},
		{"nan", "NaN", 0},
		{"infinity", "Inf", 0},
		{"two separators", "1.234,5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDecimalOrDefault(tt.cell, 0))
		})
	}
}

func TestParseDecimalOrDefault_CustomDefault(t *testing.T) {
	assert.Equal(t, -1.0, ParseDecimalOrDefault("#DIV/0!", -1))
	assert.Equal(t, 2.5, ParseDecimalOrDefault("2,5", -1))
}

func TestParseDecimal_ReportsFailure(t *testing.T) {
	v, ok := ParseDecimal("43,25")
	assert.True(t, ok)
	assert.Equal(t, 43.25, v)

	_, ok = ParseDecimal("")
	assert.False(t, ok)

	_, ok = ParseDecimal("nan")
	assert.False(t, ok)
}

func TestMonthNumberAndLabel(t *testing.T) {
	assert.Equal(t, 1, MonthNumber("Janvier"))
	assert.Equal(t, 2, MonthNumber("  FÉVRIER "))
	assert.Equal(t, 8, MonthNumber("août"))
	assert.Equal(t, 12, MonthNumber("Décembre"))
	assert.Equal(t, 0, MonthNumber("Total"))
	assert.Equal(t, 0, MonthNumber(""))

	assert.Equal(t, "Février", MonthLabel(" FÉVRIER"))
	assert.Equal(t, "Août", MonthLabel("août"))
	assert.Equal(t, "Mars", MonthLabel("mars"))
}
