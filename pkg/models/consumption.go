package models

// AnnualConsumption is one ship's fuel consumption for a whole year
type AnnualConsumption struct {
	ID       int     `db:"id" json:"id"`
	Year     int     `db:"annee" json:"year"`
	Ship     string  `db:"navire" json:"ship"`
	TotalM3  float64 `db:"conso_m3" json:"total_m3"`         // Annual total volume
	LPerMile float64 `db:"conso_l_mille" json:"l_per_mile"` // Specific consumption (litres per nautical mile)
}

// MonthlyConsumption is one ship's fuel volume for a single month
type MonthlyConsumption struct {
	ID      int     `db:"id" json:"id"`
	Year    int     `db:"annee" json:"year"`
	Month   string  `db:"mois" json:"month"` // Capitalized French month label, e.g. "Février"
	Ship    string  `db:"navire" json:"ship"`
	TotalM3 float64 `db:"conso_m3" json:"total_m3"`
}
