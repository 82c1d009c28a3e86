package analytics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecdash/pkg/contracts/domain"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func ecPtr(v float64) *float64 { return &v }

func reading(site string, minute int, temp, hum, ph, ec float64) domain.EnvironmentReading {
	return domain.EnvironmentReading{
		Site:        site,
		Time:        time.Date(2025, 5, 1, 9, minute, 0, 0, time.UTC),
		Temperature: temp,
		Humidity:    hum,
		PH:          ph,
		EC:          ec,
	}
}

func plant(site string, ec *float64, fw, leaves, shoot float64) domain.GrowthRecord {
	return domain.GrowthRecord{Site: site, TargetEC: ec, FreshWeight: fw, LeafCount: leaves, ShootLength: shoot}
}

// fixture builds two environment sites and three growth sheets, one of which
// has no target EC.
func fixture() *domain.Dataset {
	songdo, _ := domain.LookupSite("송도고")
	haneul, _ := domain.LookupSite("하늘고")

	return &domain.Dataset{
		Environment: map[string]*domain.EnvironmentTable{
			"하늘고": {Site: haneul, Readings: []domain.EnvironmentReading{
				reading("하늘고", 0, 22, 60, 6.0, 2.1),
				reading("하늘고", 10, 24, 70, 6.2, 1.9),
			}},
			"송도고": {Site: songdo, Readings: []domain.EnvironmentReading{
				reading("송도고", 0, 10, 50, 5.8, 1.0),
				reading("송도고", 10, 20, math.NaN(), 5.9, 1.1),
				reading("송도고", 20, 30, 40, 6.0, 0.9),
			}},
		},
		Growth: map[string]*domain.GrowthTable{
			"송도고": {SheetName: "송도고", TargetEC: ecPtr(1), Records: []domain.GrowthRecord{
				plant("송도고", ecPtr(1), 5.0, 6, 80),
				plant("송도고", ecPtr(1), 7.0, 8, 100),
			}},
			"하늘고": {SheetName: "하늘고", TargetEC: ecPtr(2), Records: []domain.GrowthRecord{
				plant("하늘고", ecPtr(2), 9.0, 10, 110),
				plant("하늘고", ecPtr(2), math.NaN(), 9, 105),
			}},
			"예비": {SheetName: "예비", Records: []domain.GrowthRecord{
				plant("예비", nil, 100, 1, 1),
			}},
		},
		SheetOrder: []string{"하늘고", "송도고", "예비"},
	}
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 20.0, Mean([]float64{10, 20, 30}), 1e-9)
	assert.InDelta(t, 15.0, Mean([]float64{10, math.NaN(), 20}), 1e-9)
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(Mean([]float64{math.NaN()})))
}

func TestBox(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   BoxStats
	}{
		{
			name:   "odd count",
			values: []float64{5, 1, 3, 2, 4},
			want:   BoxStats{Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5, Count: 5},
		},
		{
			name:   "interpolated quartiles",
			values: []float64{1, 2, 3, 4},
			want:   BoxStats{Min: 1, Q1: 1.75, Median: 2.5, Q3: 3.25, Max: 4, Count: 4},
		},
		{
			name:   "single value",
			values: []float64{7},
			want:   BoxStats{Min: 7, Q1: 7, Median: 7, Q3: 7, Max: 7, Count: 1},
		},
		{
			name:   "NaN ignored",
			values: []float64{math.NaN(), 2, 4},
			want:   BoxStats{Min: 2, Q1: 2.5, Median: 3, Q3: 3.5, Max: 4, Count: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Box(tt.values), approx); diff != "" {
				t.Errorf("Box() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBox_Empty(t *testing.T) {
	got := Box(nil)
	assert.Equal(t, 0, got.Count)
	assert.True(t, math.IsNaN(got.Median))
}

func TestOverview(t *testing.T) {
	got := Overview(fixture())

	assert.Equal(t, 5, got.TotalPlants)
	// Pooled over all five readings: (22+24+10+20+30)/5.
	assert.InDelta(t, 21.2, got.AvgTemperature, 1e-9)
	// The NaN humidity is skipped: (60+70+50+40)/4.
	assert.InDelta(t, 55.0, got.AvgHumidity, 1e-9)
	assert.Equal(t, domain.ReferenceOptimalEC, got.OptimalEC)

	require.Len(t, got.Sites, 3)
	assert.Equal(t, "하늘고", got.Sites[0].Site)
	assert.Equal(t, 2, got.Sites[0].PlantCount)
	assert.Equal(t, "#2ca02c", got.Sites[0].Color)
	assert.Nil(t, got.Sites[2].TargetEC)
	assert.Equal(t, "#7f7f7f", got.Sites[2].Color)
}

func TestSiteAverages(t *testing.T) {
	got := SiteAverages(fixture())

	want := []SiteAverage{
		{Site: "송도고", Color: "#1f77b4", Temperature: 20, Humidity: 45, PH: 5.9, ECMeasured: 1.0, ECTarget: 1.0},
		{Site: "하늘고", Color: "#2ca02c", Temperature: 23, Humidity: 65, PH: 6.1, ECMeasured: 2.0, ECTarget: 2.0},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("SiteAverages() mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeSeries(t *testing.T) {
	ds := fixture()

	t.Run("all sites in display order", func(t *testing.T) {
		got, err := TimeSeries(ds, domain.AllSites)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "송도고", got[0].Site)
		assert.Equal(t, "하늘고", got[1].Site)
		assert.Len(t, got[0].Points, 3)
	})

	t.Run("empty filter and picker label mean all", func(t *testing.T) {
		for _, filter := range []string{"", domain.AllSitesLabel} {
			got, err := TimeSeries(ds, filter)
			require.NoError(t, err)
			assert.Len(t, got, 2)
		}
	})

	t.Run("single site", func(t *testing.T) {
		got, err := TimeSeries(ds, "하늘고")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2.0, got[0].TargetEC)
		assert.Equal(t, 24.0, got[0].Points[1].Temperature)
		assert.True(t, got[0].Points[0].Time.Before(got[0].Points[1].Time))
	})

	t.Run("site without environment file yields nothing", func(t *testing.T) {
		got, err := TimeSeries(ds, "동산고")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("readings without a timestamp are left out", func(t *testing.T) {
		ds := fixture()
		undated := reading("하늘고", 0, 99, 99, 6.0, 2.0)
		undated.Time = time.Time{}
		ds.Environment["하늘고"].Readings = append(ds.Environment["하늘고"].Readings, undated)

		got, err := TimeSeries(ds, "하늘고")
		require.NoError(t, err)
		require.Len(t, got[0].Points, 2)
		for _, p := range got[0].Points {
			assert.False(t, p.Time.IsZero())
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		_, err := TimeSeries(ds, "없는학교")
		assert.ErrorIs(t, err, ErrUnknownSite)
	})
}

func TestGroupByEC(t *testing.T) {
	got := GroupByEC(fixture().GrowthRecords())

	want := []ECGroup{
		{EC: 1, MeanFreshWeight: 6, MeanLeafCount: 7, MeanShootLength: 90, Count: 2},
		{EC: 2, MeanFreshWeight: 9, MeanLeafCount: 9.5, MeanShootLength: 107.5, Count: 2},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("GroupByEC() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimalEC(t *testing.T) {
	tests := []struct {
		name   string
		groups []ECGroup
		want   float64
	}{
		{
			name: "largest mean wins",
			groups: []ECGroup{
				{EC: 1, MeanFreshWeight: 5.0},
				{EC: 2, MeanFreshWeight: 9.2},
				{EC: 4, MeanFreshWeight: 3.1},
				{EC: 8, MeanFreshWeight: 2.0},
			},
			want: 2,
		},
		{
			name: "tie goes to lowest EC",
			groups: []ECGroup{
				{EC: 8, MeanFreshWeight: 7},
				{EC: 4, MeanFreshWeight: 7},
				{EC: 1, MeanFreshWeight: 3},
			},
			want: 4,
		},
		{
			name: "NaN never wins",
			groups: []ECGroup{
				{EC: 1, MeanFreshWeight: math.NaN()},
				{EC: 2, MeanFreshWeight: 0.5},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OptimalEC(tt.groups)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.EC)
		})
	}
}

func TestOptimalEC_Empty(t *testing.T) {
	_, ok := OptimalEC(nil)
	assert.False(t, ok)
}

func TestFreshWeightDistribution(t *testing.T) {
	got := FreshWeightDistribution(fixture())

	require.Len(t, got, 3)
	assert.Equal(t, "하늘고", got[0].Site)
	assert.Equal(t, []float64{9.0}, got[0].Values)
	assert.Equal(t, 1, got[0].Stats.Count)
	assert.Equal(t, []float64{5.0, 7.0}, got[1].Values)
	assert.InDelta(t, 6.0, got[1].Stats.Median, 1e-9)
}

func TestCorrelation(t *testing.T) {
	got := Correlation(fixture(), LeafCount)

	require.Len(t, got, 3)
	// The NaN fresh weight plant is dropped.
	assert.Equal(t, []Point{{X: 10, Y: 9}}, got[0].Points)
	assert.Equal(t, []Point{{X: 6, Y: 5}, {X: 8, Y: 7}}, got[1].Points)

	shoot := Correlation(fixture(), ShootLength)
	assert.Equal(t, []Point{{X: 80, Y: 5}, {X: 100, Y: 7}}, shoot[1].Points)
}

func TestAggregatesEncodeNaNAsNull(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{
			name:  "overview without readings",
			value: OverviewSummary{TotalPlants: 2, AvgTemperature: nan, AvgHumidity: 55.5, OptimalEC: 2},
			want:  `{"total_plants":2,"avg_temperature":null,"avg_humidity":55.5,"optimal_ec":2,"sites":null}`,
		},
		{
			name:  "site average with an empty ph column",
			value: SiteAverage{Site: "송도고", Color: "#E74C3C", Temperature: 23, Humidity: 60, PH: nan, ECMeasured: 1.1, ECTarget: 1},
			want:  `{"site":"송도고","color":"#E74C3C","temperature":23,"humidity":60,"ph":null,"ec_measured":1.1,"ec_target":1}`,
		},
		{
			name:  "series point with a blank cell",
			value: SeriesPoint{Temperature: 21.5, Humidity: nan, EC: math.Inf(1)},
			want:  `{"time":"0001-01-01T00:00:00Z","temperature":21.5,"humidity":null,"ec":null}`,
		},
		{
			name:  "group without weights",
			value: ECGroup{EC: 4, MeanFreshWeight: nan, MeanLeafCount: 7, MeanShootLength: nan, Count: 1},
			want:  `{"ec":4,"mean_fresh_weight":null,"mean_leaf_count":7,"mean_shoot_length":null,"count":1}`,
		},
		{
			name:  "box of nothing",
			value: Box(nil),
			want:  `{"min":null,"q1":null,"median":null,"q3":null,"max":null,"count":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestAggregatesEncodeNaNAsNull_Nested(t *testing.T) {
	got, err := json.Marshal([]SiteDistribution{{Site: "하늘고", Values: []float64{}, Stats: Box(nil)}})
	require.NoError(t, err)
	assert.Contains(t, string(got), `"median":null`)
}
