package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecdash/internal/analytics"
	"ecdash/internal/dataprocessing"
	"ecdash/pkg/contracts/domain"
)

// MockLoader is a mock for DatasetLoader
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Fingerprint() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockLoader) Load(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called(ctx)
	if ds := args.Get(0); ds != nil {
		return ds.(*domain.Dataset), args.Error(1)
	}
	return nil, args.Error(1)
}

func ec(v float64) *float64 { return &v }

// testDataset has every site with two readings and two plants, except that
// 하늘고 grows the heaviest plants.
func testDataset() *domain.Dataset {
	ds := &domain.Dataset{
		Environment: map[string]*domain.EnvironmentTable{},
		Growth:      map[string]*domain.GrowthTable{},
		Fingerprint: "fp-1",
	}
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	weights := map[string][]float64{
		"송도고": {5.0, 5.0},
		"하늘고": {9.0, 9.4},
		"아라고": {3.0, 3.2},
		"동산고": {2.0, 2.0},
	}

	for _, site := range domain.Sites() {
		env := &domain.EnvironmentTable{
			Site:  site,
			Table: domain.Table{Columns: []string{"time", "temperature", "humidity", "ph", "ec", "school"}},
		}
		for i := 0; i < 2; i++ {
			env.Readings = append(env.Readings, domain.EnvironmentReading{
				Site: site.Name, Time: start.Add(time.Duration(i) * time.Hour),
				Temperature: 20, Humidity: 60, PH: 6, EC: site.TargetEC,
			})
			env.Table.Rows = append(env.Table.Rows, []string{"2025-05-01 09:00", "20", "60", "6", "1", site.Name})
		}
		ds.Environment[site.Name] = env

		g := &domain.GrowthTable{
			SheetName: site.Name,
			TargetEC:  ec(site.TargetEC),
			Table:     domain.Table{Columns: []string{domain.ColumnFreshWeight, "school", "ec"}},
		}
		for _, w := range weights[site.Name] {
			g.Records = append(g.Records, domain.GrowthRecord{
				Site: site.Name, TargetEC: ec(site.TargetEC), FreshWeight: w, LeafCount: 6, ShootLength: 80,
			})
			g.Table.Rows = append(g.Table.Rows, []string{"5", site.Name, "1.0"})
		}
		ds.Growth[site.Name] = g
		ds.SheetOrder = append(ds.SheetOrder, site.Name)
	}
	return ds
}

func newService(loader DatasetLoader) *DataService {
	return NewDataService(NewDatasetCache(loader, nil, nil), nil, nil)
}

func TestDatasetCache_LoadsOncePerFingerprint(t *testing.T) {
	loader := new(MockLoader)
	first, second := testDataset(), testDataset()
	loader.On("Fingerprint").Return("fp-1", nil).Times(3)
	loader.On("Fingerprint").Return("fp-2", nil)
	loader.On("Load", mock.Anything).Return(first, nil).Once()
	loader.On("Load", mock.Anything).Return(second, nil).Once()

	cache := NewDatasetCache(loader, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ds, err := cache.Get(ctx)
		require.NoError(t, err)
		assert.Same(t, first, ds)
	}

	ds, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, second, ds)
	assert.Equal(t, 1, cache.Len())

	loader.AssertNumberOfCalls(t, "Load", 2)
}

func TestDatasetCache_KeepsOnlyLatestFingerprint(t *testing.T) {
	loader := new(MockLoader)
	first, second, third := testDataset(), testDataset(), testDataset()
	loader.On("Fingerprint").Return("fp-1", nil).Once()
	loader.On("Fingerprint").Return("fp-2", nil).Once()
	loader.On("Fingerprint").Return("fp-1", nil).Once()
	loader.On("Load", mock.Anything).Return(first, nil).Once()
	loader.On("Load", mock.Anything).Return(second, nil).Once()
	loader.On("Load", mock.Anything).Return(third, nil).Once()

	cache := NewDatasetCache(loader, nil, nil)
	ctx := context.Background()
	assert.Zero(t, cache.Len())

	for _, want := range []*domain.Dataset{first, second, third} {
		ds, err := cache.Get(ctx)
		require.NoError(t, err)
		assert.Same(t, want, ds)
		assert.Equal(t, 1, cache.Len())
	}

	// fp-1 was evicted by fp-2, so returning to it loads again
	loader.AssertNumberOfCalls(t, "Load", 3)
}

func TestDatasetCache_ErrorsAreNotCached(t *testing.T) {
	missing := &dataprocessing.MissingFileError{Name: "아라고_환경데이터.csv"}
	loader := new(MockLoader)
	loader.On("Fingerprint").Return("fp-1", nil)
	loader.On("Load", mock.Anything).Return(nil, missing).Once()
	loader.On("Load", mock.Anything).Return(testDataset(), nil).Once()

	cache := NewDatasetCache(loader, nil, nil)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, dataprocessing.ErrMissingInput)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestDatasetCache_FingerprintError(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Fingerprint").Return("", errors.New("permission denied"))

	_, err := NewDatasetCache(loader, nil, nil).Get(context.Background())
	assert.ErrorContains(t, err, "permission denied")
	loader.AssertNotCalled(t, "Load", mock.Anything)
}

// blockingLoader holds every Load until release is closed.
type blockingLoader struct {
	calls   atomic.Int32
	release chan struct{}
	ds      *domain.Dataset
}

func (b *blockingLoader) Fingerprint() (string, error) { return "fp", nil }

func (b *blockingLoader) Load(ctx context.Context) (*domain.Dataset, error) {
	b.calls.Add(1)
	<-b.release
	return b.ds, nil
}

func TestDatasetCache_ConcurrentLoadsCollapse(t *testing.T) {
	loader := &blockingLoader{release: make(chan struct{}), ds: testDataset()}
	cache := NewDatasetCache(loader, nil, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*domain.Dataset, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := cache.Get(context.Background())
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}

	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(loader.release)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, ds := range results {
		assert.Same(t, loader.ds, ds)
	}
}

func TestDataService_EnvironmentView(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Fingerprint").Return("fp-1", nil)
	loader.On("Load", mock.Anything).Return(testDataset(), nil)
	svc := newService(loader)
	ctx := context.Background()

	t.Run("all sites", func(t *testing.T) {
		view, err := svc.EnvironmentView(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, domain.AllSites, view.Filter)
		assert.Len(t, view.Series, 4)
		assert.Len(t, view.Averages, 4)
		assert.Equal(t, 8, view.Table.Len())
	})

	t.Run("single site keeps averages and table complete", func(t *testing.T) {
		view, err := svc.EnvironmentView(ctx, "아라고")
		require.NoError(t, err)
		assert.Equal(t, "아라고", view.Filter)
		require.Len(t, view.Series, 1)
		assert.Equal(t, "아라고", view.Series[0].Site)
		assert.Len(t, view.Averages, 4)
		assert.Equal(t, 8, view.Table.Len())
	})
}

func TestDataService_UnknownSiteSkipsLoad(t *testing.T) {
	loader := new(MockLoader)
	svc := newService(loader)

	_, err := svc.EnvironmentView(context.Background(), "서울고")
	assert.ErrorIs(t, err, ErrUnknownSite)
	_, err = svc.TimeSeries(context.Background(), "서울고")
	assert.ErrorIs(t, err, ErrUnknownSite)

	loader.AssertNotCalled(t, "Fingerprint")
	loader.AssertNotCalled(t, "Load", mock.Anything)
}

func TestDataService_Growth(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Fingerprint").Return("fp-1", nil)
	loader.On("Load", mock.Anything).Return(testDataset(), nil)
	svc := newService(loader)
	ctx := context.Background()

	view, err := svc.GrowthView(ctx)
	require.NoError(t, err)
	require.Len(t, view.Groups, 4)
	require.NotNil(t, view.Optimal)
	assert.Equal(t, 2.0, view.Optimal.EC)

	optimal := 0
	for _, card := range view.Groups {
		if card.Optimal {
			optimal++
			assert.Equal(t, 2.0, card.EC)
		}
	}
	assert.Equal(t, 1, optimal)
	assert.Len(t, view.Distribution, 4)
	assert.Len(t, view.LeafScatter, 4)
	assert.Len(t, view.ShootScatter, 4)
	assert.Equal(t, 8, view.Table.Len())

	best, err := svc.OptimalEC(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9.2, best.MeanFreshWeight, 1e-9)

	summary, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.TotalPlants)
}

func TestDataService_OptimalECWithoutGrowth(t *testing.T) {
	ds := testDataset()
	for _, g := range ds.Growth {
		g.Records = nil
	}
	loader := new(MockLoader)
	loader.On("Fingerprint").Return("fp-1", nil)
	loader.On("Load", mock.Anything).Return(ds, nil)

	_, err := newService(loader).OptimalEC(context.Background())
	assert.ErrorIs(t, err, ErrNoGrowthData)
}

func TestDataService_Exports(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Fingerprint").Return("fp-1", nil)
	loader.On("Load", mock.Anything).Return(testDataset(), nil)
	svc := newService(loader)
	ctx := context.Background()

	// A filtered view first: exports must still cover every site.
	_, err := svc.EnvironmentView(ctx, "송도고")
	require.NoError(t, err)

	var csvBuf bytes.Buffer
	require.NoError(t, svc.ExportEnvironment(ctx, &csvBuf))
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(csvBuf.Bytes(), []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1+8)

	var xlsxBuf bytes.Buffer
	require.NoError(t, svc.ExportGrowth(ctx, &xlsxBuf))
	f, err := excelize.OpenReader(&xlsxBuf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Len(t, rows, 1+8)
}

func TestDataService_LoadFailure(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Fingerprint").Return("fp-1", nil)
	loader.On("Load", mock.Anything).Return(nil, &dataprocessing.MissingSheetError{Workbook: "생육결과.xlsx", Sheet: "동산고"})
	svc := newService(loader)

	var buf bytes.Buffer
	err := svc.ExportEnvironment(context.Background(), &buf)
	assert.ErrorIs(t, err, dataprocessing.ErrMissingInput)
	assert.Zero(t, buf.Len())

	_, err = svc.GrowthView(context.Background())
	var sheetErr *dataprocessing.MissingSheetError
	assert.ErrorAs(t, err, &sheetErr)
}

func TestECCard_JSON(t *testing.T) {
	card := ECCard{
		ECGroup: analytics.ECGroup{EC: 2, MeanFreshWeight: math.NaN(), MeanLeafCount: 8, MeanShootLength: 90, Count: 3},
		Optimal: true,
	}

	got, err := json.Marshal(GrowthSummary{Groups: []ECCard{card}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"groups":[{"ec":2,"mean_fresh_weight":null,"mean_leaf_count":8,"mean_shoot_length":90,"count":3,"optimal":true}]}`, string(got))
}

func TestHealthService(t *testing.T) {
	ctx := context.Background()

	t.Run("liveness", func(t *testing.T) {
		hs := NewHealthService("1.0.0", t.TempDir(), nil, nil)
		assert.Equal(t, "alive", hs.LivenessCheck(ctx).Status)
		assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)
	})

	t.Run("ready", func(t *testing.T) {
		loader := new(MockLoader)
		loader.On("Fingerprint").Return("fp-1", nil)
		loader.On("Load", mock.Anything).Return(testDataset(), nil)

		hs := NewHealthService("1.0.0", t.TempDir(), newService(loader), nil)
		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, "ready", status.Status)
		assert.Contains(t, status.Services, "dataset")
	})

	t.Run("dataset fails", func(t *testing.T) {
		loader := new(MockLoader)
		loader.On("Fingerprint").Return("fp-1", nil)
		loader.On("Load", mock.Anything).Return(nil, &dataprocessing.MissingFileError{Name: "*.xlsx"})

		hs := NewHealthService("1.0.0", t.TempDir(), newService(loader), nil)
		assert.Equal(t, "not_ready", hs.ReadinessCheck(ctx).Status)
	})

	t.Run("missing directory", func(t *testing.T) {
		hs := NewHealthService("1.0.0", "/definitely/not/here", nil, nil)
		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, "not_ready", status.Status)
		assert.NotContains(t, status.Services, "dataset")
	})
}
