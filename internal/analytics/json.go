package analytics

import (
	"encoding/json"
	"math"
	"strconv"
)

// number is a float64 that encodes NaN and infinities as null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// The aggregate types below shadow their float fields with number so an
// all-empty column encodes as null instead of failing the whole response.

func (s OverviewSummary) MarshalJSON() ([]byte, error) {
	type plain OverviewSummary
	return json.Marshal(struct {
		plain
		AvgTemperature number `json:"avg_temperature"`
		AvgHumidity    number `json:"avg_humidity"`
	}{plain(s), number(s.AvgTemperature), number(s.AvgHumidity)})
}

func (a SiteAverage) MarshalJSON() ([]byte, error) {
	type plain SiteAverage
	return json.Marshal(struct {
		plain
		Temperature number `json:"temperature"`
		Humidity    number `json:"humidity"`
		PH          number `json:"ph"`
		ECMeasured  number `json:"ec_measured"`
	}{plain(a), number(a.Temperature), number(a.Humidity), number(a.PH), number(a.ECMeasured)})
}

func (p SeriesPoint) MarshalJSON() ([]byte, error) {
	type plain SeriesPoint
	return json.Marshal(struct {
		plain
		Temperature number `json:"temperature"`
		Humidity    number `json:"humidity"`
		EC          number `json:"ec"`
	}{plain(p), number(p.Temperature), number(p.Humidity), number(p.EC)})
}

func (g ECGroup) MarshalJSON() ([]byte, error) {
	type plain ECGroup
	return json.Marshal(struct {
		plain
		MeanFreshWeight number `json:"mean_fresh_weight"`
		MeanLeafCount   number `json:"mean_leaf_count"`
		MeanShootLength number `json:"mean_shoot_length"`
	}{plain(g), number(g.MeanFreshWeight), number(g.MeanLeafCount), number(g.MeanShootLength)})
}

func (b BoxStats) MarshalJSON() ([]byte, error) {
	type plain BoxStats
	return json.Marshal(struct {
		plain
		Min    number `json:"min"`
		Q1     number `json:"q1"`
		Median number `json:"median"`
		Q3     number `json:"q3"`
		Max    number `json:"max"`
	}{plain(b), number(b.Min), number(b.Q1), number(b.Median), number(b.Q3), number(b.Max)})
}
