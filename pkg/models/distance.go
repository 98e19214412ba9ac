package models

import "time"

// TimestampLayout is the text form of DistanceSample timestamps in the store
const TimestampLayout = "2006-01-02 15:04:05"

// DistanceSample is a GPS position with the distance covered since the previous fix
type DistanceSample struct {
	ID        int       `json:"id"`
	Vessel    string    `json:"vessel"`
	Timestamp time.Time `json:"date"`
	Distance  float64   `json:"distance"` // Nautical miles from the previous point, 0 for the first one
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}
