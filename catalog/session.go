package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Observer receives operation outcomes, e.g. to feed metrics.
type Observer interface {
	Observe(op, outcome string)
}

// Outcomes passed to Observer.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid"
	OutcomeStale   = "stale"
	OutcomePartial = "partial"
)

// Options configures a Session.
type Options struct {
	// CallTimeout bounds each individual store call. Zero means no bound
	// beyond the caller's context.
	CallTimeout time.Duration
	// BulkConcurrency caps in-flight deletes during a bulk delete.
	BulkConcurrency int
	// PageSize is the initial page size.
	PageSize int
	Logger   zerolog.Logger
	Observer Observer
	// NewIdempotencyKey generates the key sent with each create.
	NewIdempotencyKey func() string
}

const defaultBulkConcurrency = 8

// Session is the catalog view state for one user: the active filter, the
// last result set and its stats, paging, and the row selection. It is safe
// for concurrent use; store calls run without holding the lock.
type Session struct {
	store Store
	opts  Options
	log   zerolog.Logger

	mu        sync.Mutex
	filter    Filter
	results   []PriceRecord
	stats     Stats
	selection Selection
	pageIndex int
	pageSize  int
	gen       uint64
	lastErr   error
}

// NewSession returns a session reading from and writing to store. Nothing is
// loaded until Search is called.
func NewSession(store Store, opts Options) *Session {
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = defaultBulkConcurrency
	}
	if opts.NewIdempotencyKey == nil {
		opts.NewIdempotencyKey = uuid.NewString
	}
	return &Session{
		store:    store,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "catalog").Logger(),
		stats:    Aggregate(nil),
		pageSize: NormalizePageSize(opts.PageSize),
	}
}

// View is a snapshot of the session for rendering.
type View struct {
	Filter      Filter
	Items       []PriceRecord
	Total       int
	PageIndex   int
	PageSize    int
	PageCount   int
	Stats       Stats
	Selected    []string
	AllSelected bool
	// Err is the last query failure. The rest of the view still holds the
	// last good data.
	Err error
}

// View returns the current page and the state around it.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := IDs(s.results)
	page := Paginate(s.results, s.pageIndex, s.pageSize)
	return View{
		Filter:      s.filter,
		Items:       append([]PriceRecord(nil), page...),
		Total:       len(s.results),
		PageIndex:   s.pageIndex,
		PageSize:    s.pageSize,
		PageCount:   PageCount(len(s.results), s.pageSize),
		Stats:       s.stats,
		Selected:    s.selection.Ordered(ids),
		AllSelected: s.selection.AllSelected(ids),
		Err:         s.lastErr,
	}
}

// Results returns a copy of the full filtered result set.
func (s *Session) Results() []PriceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PriceRecord(nil), s.results...)
}

// Stats returns the stats of the current result set.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Search loads the result set for f. The filter only becomes the session's
// filter once its response arrives; a changed filter then resets the page
// and clears the selection. If the store fails the previous filter, result
// set and selection are all kept and a QueryFailed error is returned. A
// response that arrives after a newer query was issued is dropped and nil is
// returned.
func (s *Session) Search(ctx context.Context, f Filter) error {
	return s.query(ctx, f.Normalize())
}

// Refresh re-runs the current filter. Selection and page are kept where the
// rows still exist.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	f := s.filter
	s.mu.Unlock()
	return s.query(ctx, f)
}

func (s *Session) query(ctx context.Context, f Filter) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	records, err := s.store.Search(callCtx, f)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.log.Debug().Uint64("generation", gen).Uint64("current", s.gen).Msg("catalog: discarding stale search response")
		s.observe("search", OutcomeStale)
		return nil
	}
	if err != nil {
		s.lastErr = queryError(err)
		s.log.Warn().Err(err).Str("query", f.Text).Msg("catalog: search failed, keeping previous results")
		s.observe("search", OutcomeFailed)
		return s.lastErr
	}

	if f != s.filter {
		s.filter = f
		s.pageIndex = 0
		s.selection.Clear()
	}
	s.results = records
	s.stats = Aggregate(records)
	s.lastErr = nil
	s.selection.Retain(IDs(records))
	if s.pageIndex >= PageCount(len(records), s.pageSize) {
		s.pageIndex = 0
	}
	s.observe("search", OutcomeOK)
	return nil
}

// SetPage moves to page index (0-based). Out of range indexes are clamped.
func (s *Session) SetPage(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := PageCount(len(s.results), s.pageSize) - 1
	if index > last {
		index = last
	}
	if index < 0 {
		index = 0
	}
	s.pageIndex = index
}

// SetPageSize changes the page size and returns to the first page.
func (s *Session) SetPageSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = NormalizePageSize(size)
	s.pageIndex = 0
}

// Select marks id as selected. Ids outside the current result set are
// ignored and false is returned.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inResults(id) {
		return false
	}
	s.selection.Select(id)
	return true
}

// Deselect unmarks id.
func (s *Session) Deselect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Deselect(id)
}

// ToggleAll selects the whole filtered result set, not just the current
// page, unless it is already fully selected, in which case it clears the
// selection.
func (s *Session) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ToggleAll(IDs(s.results))
}

// Selected returns the selected ids in result order.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Ordered(IDs(s.results))
}

// Export is a CSV download of the full filtered result set.
type Export struct {
	Filename string
	MIMEType string
	Data     []byte
}

// ExportCSV serialises the current result set. now only names the file.
func (s *Session) ExportCSV(now time.Time) Export {
	s.mu.Lock()
	records := append([]PriceRecord(nil), s.results...)
	s.mu.Unlock()

	return Export{
		Filename: CSVFilename(now),
		MIMEType: CSVMIMEType,
		Data:     ToCSV(records),
	}
}

func (s *Session) inResults(id string) bool {
	for _, rec := range s.results {
		if rec.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.CallTimeout)
}

func (s *Session) observe(op, outcome string) {
	if s.opts.Observer != nil {
		s.opts.Observer.Observe(op, outcome)
	}
}
