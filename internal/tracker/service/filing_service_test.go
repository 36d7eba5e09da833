package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"filing-tracker/internal/entity"
	"filing-tracker/internal/tracker/dto"
	"filing-tracker/internal/tracker/repository"
	"filing-tracker/internal/tracker/scraper"
	"filing-tracker/pkg/logger"
	"filing-tracker/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements both repository interfaces over in-memory maps so
// the archive transaction semantics can be exercised without a database.
type fakeStore struct {
	mu      sync.Mutex
	filings map[string]entity.Filing
	history []entity.FilingHistory

	archiveErrFor map[string]error
	loseRace      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		filings:       make(map[string]entity.Filing),
		archiveErrFor: make(map[string]error),
	}
}

func (s *fakeStore) Upsert(ctx context.Context, filing *entity.Filing) (repository.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.filings[filing.Ticker]
	s.filings[filing.Ticker] = *filing
	if exists {
		return repository.UpsertUpdated, nil
	}
	return repository.UpsertInserted, nil
}

func (s *fakeStore) FindDue(ctx context.Context, asOf time.Time) ([]entity.Filing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []entity.Filing
	for _, f := range s.filings {
		if !f.NextEarningsDate.After(asOf) {
			due = append(due, f)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextEarningsDate.Before(due[j].NextEarningsDate)
	})
	return due, nil
}

func (s *fakeStore) Delete(ctx context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.filings, ticker)
	return nil
}

func (s *fakeStore) NextUpcoming(ctx context.Context) (*entity.Filing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next *entity.Filing
	for _, f := range s.filings {
		f := f
		if next == nil || f.NextEarningsDate.Before(next.NextEarningsDate) {
			next = &f
		}
	}
	return next, nil
}

func (s *fakeStore) ArchiveFiling(ctx context.Context, filing *entity.Filing, history *entity.FilingHistory) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.archiveErrFor[filing.Ticker]; err != nil {
		return false, err
	}
	if s.loseRace {
		return false, nil
	}
	current, ok := s.filings[filing.Ticker]
	if !ok || !current.NextEarningsDate.Equal(filing.NextEarningsDate) {
		return false, nil
	}
	delete(s.filings, filing.Ticker)
	s.history = append(s.history, *history)
	return true, nil
}

func (s *fakeStore) FindRecent(ctx context.Context, limit int) ([]entity.FilingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]entity.FilingHistory, len(s.history))
	copy(entries, s.history)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *fakeStore) FindByTicker(ctx context.Context, ticker string) ([]entity.FilingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []entity.FilingHistory
	for _, e := range s.history {
		if e.Ticker == ticker {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type stubRetriever struct {
	article *scraper.RetrievedArticle
	err     error
}

func (r *stubRetriever) FindLatestFiling(ctx context.Context, companyName string) (*scraper.RetrievedArticle, error) {
	return r.article, r.err
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

type denyLocker struct{}

func (denyLocker) TryLock(context.Context, string, time.Duration) (bool, error) { return false, nil }
func (denyLocker) Unlock(context.Context, string) error                         { return nil }

func newTestService(store *fakeStore, retriever ContentRetriever, locker ArchiveLocker, notifier telegram.Notifier) FilingService {
	if retriever == nil {
		retriever = &stubRetriever{}
	}
	if locker == nil {
		locker = NopArchiveLocker{}
	}
	if notifier == nil {
		notifier = telegram.NopNotifier{}
	}
	return NewFilingService(store, store, retriever, locker, notifier, logger.NewNop())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addFiling(store *fakeStore, ticker string, due time.Time, source string) {
	store.filings[ticker] = entity.Filing{
		Ticker:           ticker,
		CompanyName:      ticker + " Corp",
		NextEarningsDate: due,
		PendingFiling:    true,
		FilingSource:     source,
	}
}

func TestSaveOrUpdateFilingUpsertIdempotence(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.SaveOrUpdateFiling(ctx, &dto.SaveFilingRequest{
		Ticker:           "acme",
		CompanyName:      "Acme Corp",
		NextEarningsDate: date(2025, time.March, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "inserted", result)

	result, err = svc.SaveOrUpdateFiling(ctx, &dto.SaveFilingRequest{
		Ticker:           "ACME",
		CompanyName:      "Acme Corporation",
		NextEarningsDate: date(2025, time.June, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "updated", result)

	require.Len(t, store.filings, 1)
	saved := store.filings["ACME"]
	assert.Equal(t, "Acme Corporation", saved.CompanyName)
	assert.Equal(t, date(2025, time.June, 1), saved.NextEarningsDate)
	assert.True(t, saved.PendingFiling)
	assert.Equal(t, "manual", saved.FilingSource)
}

func TestSaveOrUpdateFilingMissingTicker(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, nil, nil)

	_, err := svc.SaveOrUpdateFiling(context.Background(), &dto.SaveFilingRequest{
		CompanyName:      "No Ticker Inc",
		NextEarningsDate: date(2025, time.March, 1),
	})
	assert.ErrorIs(t, err, ErrMissingTicker)
}

func TestProcessDueFilingsBatchCount(t *testing.T) {
	store := newFakeStore()
	now := date(2025, time.May, 15)
	addFiling(store, "DUE1", date(2025, time.May, 1), "manual")
	addFiling(store, "DUE2", date(2025, time.May, 10), "manual")
	addFiling(store, "DUE3", now, "manual")
	addFiling(store, "FUT1", date(2025, time.June, 1), "manual")
	addFiling(store, "FUT2", date(2025, time.July, 1), "manual")

	notifier := &recordingNotifier{}
	retriever := &stubRetriever{article: &scraper.RetrievedArticle{
		Title:       "Earnings out",
		Summary:     "Beat expectations",
		URL:         "https://example.com/earnings",
		FullText:    "long body",
		FetchedFrom: scraper.SourceGoogleNews,
	}}
	svc := newTestService(store, retriever, nil, notifier)

	processed, err := svc.ProcessDueFilings(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	// Only the two not-yet-due records remain active.
	assert.Len(t, store.filings, 2)
	assert.Contains(t, store.filings, "FUT1")
	assert.Contains(t, store.filings, "FUT2")

	require.Len(t, store.history, 3)
	for _, entry := range store.history {
		assert.Equal(t, entity.EventTypeEarning, entry.EventType)
		require.NotNil(t, entry.FilingURL)
		assert.Equal(t, "https://example.com/earnings", *entry.FilingURL)
		assert.Equal(t, scraper.SourceGoogleNews, entry.FetchedFrom)
		assert.Equal(t, "Auto-archived after release", entry.Notes)
	}

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "3")
}

func TestProcessDueFilingsSelectivity(t *testing.T) {
	store := newFakeStore()
	addFiling(store, "FUT1", date(2025, time.June, 1), "manual")

	svc := newTestService(store, nil, nil, nil)

	processed, err := svc.ProcessDueFilings(context.Background(), date(2025, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Len(t, store.filings, 1)
	assert.Empty(t, store.history)
}

func TestProcessDueFilingsGracefulDegradation(t *testing.T) {
	store := newFakeStore()
	due := date(2025, time.May, 1)
	addFiling(store, "ACME", due, "earnings_feed")

	// Retriever finds nothing; the filing is archived regardless.
	svc := newTestService(store, &stubRetriever{article: nil}, nil, nil)

	processed, err := svc.ProcessDueFilings(context.Background(), date(2025, time.May, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Empty(t, store.filings)

	require.Len(t, store.history, 1)
	entry := store.history[0]
	assert.Equal(t, "ACME", entry.Ticker)
	assert.Equal(t, entity.EventTypeEarning, entry.EventType)
	assert.Equal(t, due, entry.ExpectedDate)
	assert.Equal(t, "earnings_feed", entry.FetchedFrom)
	assert.Nil(t, entry.FilingURL)
	assert.Nil(t, entry.FilingTitle)
	assert.Nil(t, entry.FilingText)
}

func TestProcessDueFilingsRetrieverErrorStillArchives(t *testing.T) {
	store := newFakeStore()
	addFiling(store, "ACME", date(2025, time.May, 1), "")

	svc := newTestService(store, &stubRetriever{err: errors.New("feed exploded")}, nil, nil)

	processed, err := svc.ProcessDueFilings(context.Background(), date(2025, time.May, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	require.Len(t, store.history, 1)
	assert.Nil(t, store.history[0].FilingURL)
	assert.Equal(t, "unknown", store.history[0].FetchedFrom)
}

func TestProcessDueFilingsContinueOnError(t *testing.T) {
	store := newFakeStore()
	addFiling(store, "BAD", date(2025, time.May, 1), "manual")
	addFiling(store, "GOOD", date(2025, time.May, 2), "manual")
	store.archiveErrFor["BAD"] = errors.New("write rejected")

	svc := newTestService(store, nil, nil, nil)

	processed, err := svc.ProcessDueFilings(context.Background(), date(2025, time.May, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD")
	assert.Equal(t, 1, processed)

	// The failed record stays pending for the next scan.
	assert.Contains(t, store.filings, "BAD")
	assert.NotContains(t, store.filings, "GOOD")
	require.Len(t, store.history, 1)
	assert.Equal(t, "GOOD", store.history[0].Ticker)
}

func TestProcessDueFilingsLockHeldSkips(t *testing.T) {
	store := newFakeStore()
	addFiling(store, "ACME", date(2025, time.May, 1), "manual")

	svc := newTestService(store, nil, denyLocker{}, nil)

	processed, err := svc.ProcessDueFilings(context.Background(), date(2025, time.May, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Contains(t, store.filings, "ACME")
	assert.Empty(t, store.history)
}

func TestProcessDueFilingsLostRaceNotCounted(t *testing.T) {
	store := newFakeStore()
	store.loseRace = true
	addFiling(store, "ACME", date(2025, time.May, 1), "manual")

	svc := newTestService(store, nil, nil, nil)

	processed, err := svc.ProcessDueFilings(context.Background(), date(2025, time.May, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Empty(t, store.history)
}

func TestGetNextFiling(t *testing.T) {
	store := newFakeStore()
	addFiling(store, "MID", date(2025, time.February, 15), "manual")
	addFiling(store, "EARLY", date(2025, time.January, 10), "manual")
	addFiling(store, "LATE", date(2025, time.March, 1), "manual")

	svc := newTestService(store, nil, nil, nil)

	next, err := svc.GetNextFiling(context.Background())
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "EARLY", next.Ticker)
	assert.Equal(t, date(2025, time.January, 10), next.NextEarningsDate)
}

func TestGetNextFilingEmptyStore(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, nil, nil)

	next, err := svc.GetNextFiling(context.Background())
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRemoveFilingIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, nil, nil)

	require.NoError(t, svc.RemoveFiling(context.Background(), "GHOST"))
}

func TestGetHistoryByTicker(t *testing.T) {
	store := newFakeStore()
	store.history = []entity.FilingHistory{
		{Ticker: "ACME", EventType: entity.EventTypeEarning},
		{Ticker: "OTHER", EventType: entity.EventTypeEarning},
	}
	svc := newTestService(store, nil, nil, nil)

	entries, err := svc.GetHistory(context.Background(), "acme", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ACME", entries[0].Ticker)
}
