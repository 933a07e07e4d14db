package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"cultivai/cropvision/croplabel"
	"cultivai/cropvision/store"
	"cultivai/cropvision/weather"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClassifier struct {
	out []croplabel.Candidate
	err error
}

func (f fakeClassifier) Classify(_ context.Context, _ []byte) ([]croplabel.Candidate, error) {
	return f.out, f.err
}

type fakeWeather struct {
	report *weather.Report
	err    error
	block  bool
	gotCtx chan error
}

func (f *fakeWeather) Current(ctx context.Context, _ weather.Coordinates) (*weather.Report, error) {
	if f.block {
		<-ctx.Done()
		if f.gotCtx != nil {
			f.gotCtx <- ctx.Err()
		}
		return nil, ctx.Err()
	}
	return f.report, f.err
}

type fakeRecommender struct {
	gotCrop string
	text    string
	err     error
}

func (f *fakeRecommender) Recommend(_ context.Context, crop string, _ *weather.Report) (string, error) {
	f.gotCrop = crop
	return f.text, f.err
}

type fakeCatalog struct {
	crops map[string]store.Crop
	owned map[string]bool
}

func (f *fakeCatalog) FindCropByName(_ context.Context, name string) (*store.Crop, error) {
	c, ok := f.crops[croplabel.FoldKey(name)]
	if !ok {
		return nil, store.ErrCropNotFound
	}
	return &c, nil
}

func (f *fakeCatalog) AddUserCrop(_ context.Context, userID, cropID string) error {
	key := userID + "/" + cropID
	if f.owned[key] {
		return store.ErrAlreadyOwned
	}
	f.owned[key] = true
	return nil
}

func testResolver(t *testing.T) *croplabel.Resolver {
	t.Helper()
	r, err := croplabel.LoadResolver(croplabel.ResolverConfig{})
	require.NoError(t, err)
	return r
}

var coords = &weather.Coordinates{Latitude: -1.02, Longitude: -79.46}

func TestAnalyze_Full(t *testing.T) {
	report := &weather.Report{Name: "Quevedo"}
	rec := &fakeRecommender{text: "Riego moderado"}
	a, err := New(testResolver(t),
		fakeClassifier{out: []croplabel.Candidate{{Description: "Plant", Score: 0.99}, {Description: "Corn", Score: 0.9}}},
		WithWeather(&fakeWeather{report: report}),
		WithRecommender(rec),
		WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), []byte("img"), coords)
	require.NoError(t, err)
	assert.Equal(t, croplabel.ResolvedCrop{Label: "Corn", Name: "Maíz", Score: 0.9, Rank: 1}, got.Crop)
	assert.Same(t, report, got.Weather)
	assert.Equal(t, "Riego moderado", got.Recommendation)
	assert.Equal(t, "Maíz", rec.gotCrop)
	assert.Empty(t, got.Warnings)
	assert.Len(t, got.Candidates, 2)
}

func TestAnalyze_NotFound(t *testing.T) {
	a, err := New(testResolver(t),
		fakeClassifier{out: []croplabel.Candidate{{Description: "Sky"}}},
		WithWeather(&fakeWeather{report: &weather.Report{}}))
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), []byte("img"), coords)
	assert.ErrorIs(t, err, croplabel.ErrNotFound)
}

func TestAnalyze_ClassifyErrorCancelsWeather(t *testing.T) {
	boom := errors.New("vision down")
	seen := make(chan error, 1)
	a, err := New(testResolver(t),
		fakeClassifier{err: boom},
		WithWeather(&fakeWeather{block: true, gotCtx: seen}))
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), []byte("img"), coords)
	assert.ErrorIs(t, err, boom)
	select {
	case ctxErr := <-seen:
		assert.ErrorIs(t, ctxErr, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("weather lookup was not canceled")
	}
}

func TestAnalyze_WeatherFailureIsWarning(t *testing.T) {
	rec := &fakeRecommender{text: "unused"}
	a, err := New(testResolver(t),
		fakeClassifier{out: []croplabel.Candidate{{Description: "wheat"}}},
		WithWeather(&fakeWeather{err: weather.ErrUnavailable}),
		WithRecommender(rec))
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), []byte("img"), coords)
	require.NoError(t, err)
	assert.Equal(t, "Trigo", got.Crop.Name)
	assert.Nil(t, got.Weather)
	assert.Empty(t, got.Recommendation)
	assert.Empty(t, rec.gotCrop)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "weather")
}

func TestAnalyze_RecommendationFailureIsWarning(t *testing.T) {
	a, err := New(testResolver(t),
		fakeClassifier{out: []croplabel.Candidate{{Description: "rice"}}},
		WithWeather(&fakeWeather{report: &weather.Report{}}),
		WithRecommender(&fakeRecommender{err: errors.New("quota")}))
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), []byte("img"), coords)
	require.NoError(t, err)
	assert.Equal(t, "Arroz", got.Crop.Name)
	assert.NotNil(t, got.Weather)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "quota")
}

func TestAnalyze_NoRecommender(t *testing.T) {
	a, err := New(testResolver(t),
		fakeClassifier{out: []croplabel.Candidate{{Description: "barley"}}},
		WithWeather(&fakeWeather{report: &weather.Report{Name: "Ambato"}}))
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), []byte("img"), coords)
	require.NoError(t, err)
	assert.Equal(t, "Cebada", got.Crop.Name)
	assert.Equal(t, "Ambato", got.Weather.Name)
	assert.Empty(t, got.Recommendation)
	assert.Equal(t, []string{"recommendations disabled"}, got.Warnings)
}

func TestAnalyze_NoCoordinates(t *testing.T) {
	a, err := New(testResolver(t),
		fakeClassifier{out: []croplabel.Candidate{{Description: "potato"}}},
		WithWeather(&fakeWeather{block: true}))
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), []byte("img"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Papa", got.Crop.Name)
	assert.Equal(t, []string{"weather lookup skipped"}, got.Warnings)
}

func TestAddDetectedCrop(t *testing.T) {
	cat := &fakeCatalog{
		crops: map[string]store.Crop{croplabel.FoldKey("Maíz"): {ID: "c1", Name: "Maíz"}},
		owned: map[string]bool{},
	}
	a, err := New(testResolver(t), fakeClassifier{}, WithCatalog(cat))
	require.NoError(t, err)
	ctx := context.Background()

	crop, err := a.AddDetectedCrop(ctx, "u1", "MAÍZ")
	require.NoError(t, err)
	assert.Equal(t, "c1", crop.ID)

	_, err = a.AddDetectedCrop(ctx, "u1", "Maíz")
	assert.ErrorIs(t, err, store.ErrAlreadyOwned)

	_, err = a.AddDetectedCrop(ctx, "u1", "Mango")
	assert.ErrorIs(t, err, store.ErrCropNotFound)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, fakeClassifier{})
	assert.Error(t, err)
	_, err = New(testResolver(t), nil)
	assert.Error(t, err)

	a, err := New(testResolver(t), fakeClassifier{})
	require.NoError(t, err)
	_, err = a.AddDetectedCrop(context.Background(), "u1", "Maíz")
	assert.Error(t, err)
}
