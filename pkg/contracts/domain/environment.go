package domain

import "time"

// Source column names of the per-site environment files.
const (
	ColumnTime        = "time"
	ColumnTemperature = "temperature"
	ColumnHumidity    = "humidity"
	ColumnPH          = "ph"
	ColumnEC          = "ec"
)

// ColumnSite is appended to every loaded table and carries the site name.
const ColumnSite = "school"

// EnvironmentFileSuffix completes the per-site environment file name: "<site>" + suffix.
const EnvironmentFileSuffix = "_환경데이터.csv"

// EnvironmentFileName returns the logical file name holding a site's environment readings.
func EnvironmentFileName(site string) string {
	return site + EnvironmentFileSuffix
}

// EnvironmentReading is one timestamped sensor row of a site.
// Missing numeric cells are stored as NaN.
type EnvironmentReading struct {
	Site        string    `json:"site"`
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	PH          float64   `json:"ph"`
	EC          float64   `json:"ec"`
}

// EnvironmentTable holds one site's readings in source order together with the
// raw columns and rows they were parsed from.
type EnvironmentTable struct {
	Site     Site
	Table    Table
	Readings []EnvironmentReading
	// UnparsedTimes counts readings whose timestamp could not be read; their
	// Time is zero.
	UnparsedTimes int
}
