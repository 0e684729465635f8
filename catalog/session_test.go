package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecatalog/catalog"
	"pricecatalog/catalog/memstore"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) Observe(op, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, op+":"+outcome)
}

func (o *recordingObserver) has(event string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.events {
		if e == event {
			return true
		}
	}
	return false
}

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func scenarioStore() *memstore.Store {
	return memstore.New(
		catalog.PriceRecord{ID: "id1", ItemName: "Sign A", Category: catalog.CategorySignage, UnitPrice: price(15000), Source: catalog.SourceCPWDSOR},
		catalog.PriceRecord{ID: "id2", ItemName: "Paint B", Category: catalog.CategoryMarking, UnitPrice: price(850), Source: catalog.SourceGeM},
	)
}

func manyRecords(n int) *memstore.Store {
	records := make([]catalog.PriceRecord, n)
	for i := range records {
		records[i] = catalog.PriceRecord{
			ID:        fmt.Sprintf("r%02d", i),
			ItemName:  fmt.Sprintf("Cone %02d", i),
			Category:  catalog.CategoryEquipment,
			UnitPrice: price(int64(100 + i)),
			Source:    catalog.SourceGeM,
		}
	}
	return memstore.New(records...)
}

func newSession(store catalog.Store, obs catalog.Observer) *catalog.Session {
	return catalog.NewSession(store, catalog.Options{
		CallTimeout: time.Second,
		Logger:      zerolog.Nop(),
		Observer:    obs,
	})
}

func TestSession_SearchScenario(t *testing.T) {
	s := newSession(scenarioStore(), nil)
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, catalog.Filter{}))
	view := s.View()
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, "7925", view.Stats.AvgPrice.String())

	require.NoError(t, s.Search(ctx, catalog.Filter{Text: "sign"}))
	view = s.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Sign A", view.Items[0].ItemName)
	assert.Equal(t, 1, view.Stats.Total)
	assert.Equal(t, "15000", view.Stats.AvgPrice.String())
}

func TestSession_QueryFailureKeepsResults(t *testing.T) {
	store := scenarioStore()
	obs := &recordingObserver{}
	s := newSession(store, obs)
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, catalog.Filter{}))

	store.FailSearch(errors.New("connection reset"))
	err := s.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrQuery))
	assert.Equal(t, catalog.KindQuery, catalog.KindOf(err))

	view := s.View()
	assert.Equal(t, 2, view.Total, "previous result set is kept")
	assert.Error(t, view.Err)
	assert.True(t, obs.has("search:failed"))

	store.FailSearch(nil)
	require.NoError(t, s.Refresh(ctx))
	assert.NoError(t, s.View().Err)
}

func TestSession_FailedFilterChangeKeepsState(t *testing.T) {
	store := scenarioStore()
	s := newSession(store, nil)
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, catalog.Filter{}))
	require.True(t, s.Select("id1"))
	s.SetPageSize(1)
	s.SetPage(1)

	store.FailSearch(errors.New("down"))
	err := s.Search(ctx, catalog.Filter{Text: "paint"})
	require.Error(t, err)
	assert.Equal(t, catalog.KindQuery, catalog.KindOf(err))

	view := s.View()
	assert.Equal(t, catalog.Filter{}, view.Filter, "filter of the shown rows is kept")
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 1, view.PageIndex)
	assert.Equal(t, []string{"id1"}, view.Selected)

	// A refresh re-runs the filter that produced the rows.
	store.FailSearch(nil)
	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 2, s.View().Total)
	assert.Equal(t, []string{"id1"}, s.Selected())

	require.NoError(t, s.Search(ctx, catalog.Filter{Text: "paint"}))
	view = s.View()
	assert.Equal(t, "paint", view.Filter.Text)
	assert.Equal(t, 0, view.PageIndex)
	assert.Empty(t, view.Selected)
}

// gatedStore blocks searches for one query text until released.
type gatedStore struct {
	*memstore.Store
	text    string
	started chan struct{}
	release chan struct{}
}

func (g *gatedStore) Search(ctx context.Context, f catalog.Filter) ([]catalog.PriceRecord, error) {
	if f.Text == g.text {
		close(g.started)
		<-g.release
	}
	return g.Store.Search(ctx, f)
}

func TestSession_DiscardsStaleResponse(t *testing.T) {
	store := &gatedStore{
		Store:   scenarioStore(),
		text:    "paint",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	obs := &recordingObserver{}
	s := newSession(store, obs)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- s.Search(ctx, catalog.Filter{Text: "paint"}) }()
	<-store.started

	require.NoError(t, s.Search(ctx, catalog.Filter{Text: "sign"}))
	close(store.release)
	require.NoError(t, <-slow, "stale responses are dropped silently")

	view := s.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Sign A", view.Items[0].ItemName)
	assert.Equal(t, "sign", view.Filter.Text)
	assert.True(t, obs.has("search:stale"))
}

func TestSession_AddInvalidMakesNoStoreCall(t *testing.T) {
	store := scenarioStore()
	obs := &recordingObserver{}
	s := newSession(store, obs)

	err := s.Add(context.Background(), catalog.Draft{ItemName: "", UnitPrice: "100"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrValidation))
	assert.Equal(t, 0, store.Calls("create"))
	assert.Equal(t, 0, store.Calls("search"))
	assert.True(t, obs.has("add:invalid"))
}

func TestSession_AddRefetches(t *testing.T) {
	store := scenarioStore()
	keys := 0
	s := catalog.NewSession(store, catalog.Options{
		Logger: zerolog.Nop(),
		NewIdempotencyKey: func() string {
			keys++
			return fmt.Sprintf("key-%d", keys)
		},
	})
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))

	require.NoError(t, s.Add(ctx, catalog.Draft{ItemName: "Road stud", UnitPrice: "320", Source: catalog.SourceGeM}))

	view := s.View()
	assert.Equal(t, 3, view.Total)
	added := view.Items[2]
	assert.Equal(t, "Road stud", added.ItemName)
	assert.NotEmpty(t, added.ID, "id comes from the store")
	assert.NotEmpty(t, added.CreatedAt)
	assert.Equal(t, 1, store.Calls("create"))
}

func TestSession_AddStoreFailure(t *testing.T) {
	store := scenarioStore()
	store.FailCreate(errors.New("503 service unavailable"))
	s := newSession(store, nil)

	err := s.Add(context.Background(), catalog.Draft{ItemName: "Road stud", UnitPrice: "320"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrMutation))
	assert.Contains(t, err.Error(), "503")
}

func TestSession_Edit(t *testing.T) {
	store := scenarioStore()
	s := newSession(store, nil)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))

	newPrice := decimal.NewFromInt(900)
	require.NoError(t, s.Edit(ctx, "id2", catalog.Patch{UnitPrice: &newPrice}))

	results := s.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "900", results[1].UnitPrice.Decimal.String())
	assert.Equal(t, "7950", s.Stats().AvgPrice.String())
}

func TestSession_EditEmptyPatchIsNoop(t *testing.T) {
	store := scenarioStore()
	s := newSession(store, nil)
	require.NoError(t, s.Edit(context.Background(), "id1", catalog.Patch{}))
	assert.Equal(t, 0, store.Calls("update"))
}

func TestSession_EditUnknownID(t *testing.T) {
	s := newSession(scenarioStore(), nil)
	name := "Renamed"
	err := s.Edit(context.Background(), "missing", catalog.Patch{ItemName: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrMutation))
}

func TestSession_Delete(t *testing.T) {
	store := scenarioStore()
	s := newSession(store, nil)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))
	require.True(t, s.Select("id1"))

	require.NoError(t, s.Delete(ctx, "id1"))
	assert.Equal(t, []string{"id2"}, catalog.IDs(s.Results()))
	assert.Empty(t, s.Selected())

	err := s.Delete(ctx, "id1")
	assert.True(t, errors.Is(err, catalog.ErrMutation))
}

func TestSession_BulkDeletePartialFailure(t *testing.T) {
	store := scenarioStore()
	store.FailDelete("id2", errors.New("locked"))
	obs := &recordingObserver{}
	s := newSession(store, obs)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))
	s.ToggleAll()

	result, err := s.BulkDelete(ctx, []string{"id1", "id2"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, []string{"id1"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "id2", result.Failed[0].ID)
	assert.True(t, errors.Is(result.Err(), catalog.ErrMutation))

	assert.Equal(t, []string{"id2"}, catalog.IDs(s.Results()))
	assert.Equal(t, []string{"id2"}, s.Selected(), "failed ids stay selected")
	assert.True(t, obs.has("bulk_delete:partial"))
}

func TestSession_BulkDeleteAllSucceed(t *testing.T) {
	store := manyRecords(20)
	s := newSession(store, nil)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))

	ids := catalog.IDs(s.Results())
	result, err := s.BulkDelete(ctx, append(ids, ids[0], " "))
	require.NoError(t, err)
	assert.NoError(t, result.Err())
	assert.Equal(t, 20, result.Requested)
	assert.Len(t, result.Succeeded, 20)
	assert.Equal(t, 20, store.Calls("delete"))
	assert.Empty(t, s.Results())
}

func TestSession_BulkDeleteTimeout(t *testing.T) {
	store := scenarioStore()
	store.DelayDeletes(500 * time.Millisecond)
	s := catalog.NewSession(store, catalog.Options{
		CallTimeout: 20 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))

	start := time.Now()
	result, err := s.BulkDelete(ctx, []string{"id1", "id2"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)

	require.Len(t, result.Failed, 2)
	for _, f := range result.Failed {
		assert.True(t, errors.Is(f.Err, context.DeadlineExceeded), f.Err)
	}
	assert.Len(t, s.Results(), 2)
}

func TestSession_BulkDeleteRequiresIDs(t *testing.T) {
	s := newSession(scenarioStore(), nil)
	_, err := s.BulkDelete(context.Background(), nil)
	assert.True(t, errors.Is(err, catalog.ErrValidation))
}

func TestSession_SelectionAcrossPages(t *testing.T) {
	s := newSession(manyRecords(25), nil)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))

	require.True(t, s.Select("r01"))
	s.SetPage(2)
	assert.Equal(t, 2, s.View().PageIndex)
	require.True(t, s.Select("r21"))
	assert.Equal(t, []string{"r01", "r21"}, s.Selected())

	assert.False(t, s.Select("nope"), "ids outside the result set are ignored")

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, []string{"r01", "r21"}, s.Selected(), "refresh keeps the selection")

	require.NoError(t, s.Search(ctx, catalog.Filter{Text: "cone 0"}))
	assert.Empty(t, s.Selected(), "a new filter clears the selection")
	assert.Equal(t, 0, s.View().PageIndex)
}

func TestSession_ToggleAllCoversEveryPage(t *testing.T) {
	s := newSession(manyRecords(25), nil)
	require.NoError(t, s.Search(context.Background(), catalog.Filter{}))

	s.ToggleAll()
	view := s.View()
	assert.True(t, view.AllSelected)
	assert.Len(t, view.Selected, 25)
	assert.Len(t, view.Items, catalog.DefaultPageSize)

	s.ToggleAll()
	assert.Empty(t, s.Selected())
}

func TestSession_Paging(t *testing.T) {
	s := newSession(manyRecords(25), nil)
	require.NoError(t, s.Search(context.Background(), catalog.Filter{}))

	view := s.View()
	assert.Equal(t, 3, view.PageCount)

	s.SetPage(9)
	view = s.View()
	assert.Equal(t, 2, view.PageIndex)
	assert.Len(t, view.Items, 5)

	s.SetPageSize(20)
	view = s.View()
	assert.Equal(t, 0, view.PageIndex)
	assert.Equal(t, 2, view.PageCount)
	assert.Len(t, view.Items, 20)
}

func TestSession_ExportCSV(t *testing.T) {
	s := newSession(scenarioStore(), nil)
	ctx := context.Background()
	require.NoError(t, s.Search(ctx, catalog.Filter{}))
	s.SetPageSize(1)

	exp := s.ExportCSV(time.Date(2024, 11, 4, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "price_data_2024-11-04.csv", exp.Filename)
	assert.Equal(t, catalog.CSVMIMEType, exp.MIMEType)

	lines := strings.Split(string(exp.Data), "\n")
	require.Len(t, lines, 3, "export covers the whole result set, not the page")
	assert.Contains(t, lines[1], "Sign A")
	assert.Contains(t, lines[2], "Paint B")
}
