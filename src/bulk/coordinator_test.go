package bulk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordermonitor/src/model"
	"ordermonitor/src/notify"
)

type fakeSource struct {
	mu       sync.Mutex
	selected []model.WatchRecord
	viewed   string
	cleared  int
}

func (s *fakeSource) SelectedRecords() ([]model.WatchRecord, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WatchRecord(nil), s.selected...), s.viewed
}

func (s *fakeSource) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.cleared++
}

type fakeRefresher struct {
	mu         sync.Mutex
	calls      []string
	watchedErr error
	// onWatched runs inside RefreshWatched, before it returns.
	onWatched func()
}

func (r *fakeRefresher) RefreshWatched(context.Context) error {
	r.mu.Lock()
	r.calls = append(r.calls, "watched")
	r.mu.Unlock()
	if r.onWatched != nil {
		r.onWatched()
	}
	return r.watchedErr
}

func (r *fakeRefresher) RefreshOpenOrders(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "open")
	return nil
}

type resolveCall struct {
	orderIDs []model.OrderID
	eventID  string
}

type fakeAPI struct {
	mu          sync.Mutex
	resolves    []resolveCall
	resumes     [][]model.OrderID
	err         error
	block       chan struct{}
	blockedOnce sync.Once
	entered     chan struct{}
}

func (a *fakeAPI) ResolveWatchedOrdersBulk(_ context.Context, ids []model.OrderID, eventID string) (string, error) {
	a.wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resolves = append(a.resolves, resolveCall{orderIDs: ids, eventID: eventID})
	return "ok", a.err
}

func (a *fakeAPI) ResumeWatchedOrdersBulk(_ context.Context, ids []model.OrderID) (string, error) {
	a.wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resumes = append(a.resumes, ids)
	return "ok", a.err
}

func (a *fakeAPI) wait() {
	if a.block == nil {
		return
	}
	a.blockedOnce.Do(func() { close(a.entered) })
	<-a.block
}

func (a *fakeAPI) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.resolves) + len(a.resumes)
}

func watch(id string, orderID model.OrderID, event string, status model.OrderStatus, resolved bool) model.WatchRecord {
	return model.WatchRecord{WatchID: id, OrderID: orderID, MaintenanceEventID: event, CurrentStatus: status, Resolved: resolved}
}

func newTestCoordinator(src *fakeSource, api *fakeAPI, ref *fakeRefresher) (*Coordinator, *notify.Notifier, *[]error) {
	n := notify.New(20)
	var captured []error
	c := NewCoordinator(api, src, ref, n, nil, func(_ context.Context, _ string, err error, _ map[string]interface{}) {
		captured = append(captured, err)
	})
	return c, n, &captured
}

func lastNotice(t *testing.T, n *notify.Notifier) notify.Notice {
	t.Helper()
	recent := n.Recent()
	require.NotEmpty(t, recent)
	return recent[len(recent)-1]
}

func TestResolveUsesSingleEventFromRecords(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{watch("a", "10", "E1", model.OrderStatusPaused, false)}}
	api := &fakeAPI{}
	ref := &fakeRefresher{}
	c, n, _ := newTestCoordinator(src, api, ref)

	res, err := c.ResolveSelected(context.Background())
	require.NoError(t, err)

	require.Len(t, api.resolves, 1)
	assert.Equal(t, []model.OrderID{"10"}, api.resolves[0].orderIDs)
	assert.Equal(t, "E1", api.resolves[0].eventID)
	assert.True(t, res.Cleared)
	assert.Equal(t, 1, src.cleared)
	assert.Equal(t, []string{"watched"}, ref.calls)
	assert.Equal(t, notify.LevelSuccess, lastNotice(t, n).Level)
	assert.Contains(t, lastNotice(t, n).Message, "1")
}

func TestResolveRejectsAmbiguousEventWithoutCalling(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{
		watch("a", "10", "E1", model.OrderStatusActive, false),
		watch("b", "11", "E2", model.OrderStatusActive, false),
	}}
	api := &fakeAPI{}
	c, n, _ := newTestCoordinator(src, api, &fakeRefresher{})

	_, err := c.ResolveSelected(context.Background())
	assert.ErrorIs(t, err, ErrAmbiguousEvent)
	assert.True(t, IsRejection(err))
	assert.Zero(t, api.calls())
	assert.Zero(t, src.cleared)
	assert.Equal(t, notify.LevelWarning, lastNotice(t, n).Level)
}

func TestResolvePrefersViewedEvent(t *testing.T) {
	src := &fakeSource{
		viewed: "E9",
		selected: []model.WatchRecord{
			watch("a", "10", "E1", model.OrderStatusActive, false),
			watch("b", "11", "E2", model.OrderStatusActive, false),
			watch("c", "10", "E2", model.OrderStatusActive, false),
		},
	}
	api := &fakeAPI{}
	c, _, _ := newTestCoordinator(src, api, &fakeRefresher{})

	_, err := c.ResolveSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.OrderID{"10", "11"}, api.resolves[0].orderIDs)
	assert.Equal(t, "E9", api.resolves[0].eventID)
}

func TestResolveValidationRejections(t *testing.T) {
	tests := []struct {
		name     string
		selected []model.WatchRecord
		want     error
		level    notify.Level
	}{
		{"empty selection", nil, ErrNothingToResolve, notify.LevelWarning},
		{"only resolved", []model.WatchRecord{watch("a", "10", "E1", "", true)}, ErrNothingToResolve, notify.LevelWarning},
		{"no order ids", []model.WatchRecord{watch("a", "", "E1", "", false)}, ErrNoValidOrderIDs, notify.LevelError},
		{"no event id", []model.WatchRecord{watch("a", "10", "", "", false)}, ErrEventUndetermined, notify.LevelWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			c, n, _ := newTestCoordinator(&fakeSource{selected: tt.selected}, api, &fakeRefresher{})
			_, err := c.ResolveSelected(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, api.calls())
			assert.Equal(t, tt.level, lastNotice(t, n).Level)
		})
	}
}

func TestResolveFailureKeepsSelection(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{watch("a", "10", "E1", "", false)}}
	api := &fakeAPI{err: errors.New("503")}
	ref := &fakeRefresher{}
	c, n, captured := newTestCoordinator(src, api, ref)

	_, err := c.ResolveSelected(context.Background())
	var mErr *MutationError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, ActionResolve, mErr.Action)
	assert.False(t, IsRejection(err))
	assert.Zero(t, src.cleared)
	assert.Empty(t, ref.calls)
	assert.Len(t, *captured, 1)
	assert.Equal(t, notify.LevelError, lastNotice(t, n).Level)
	assert.False(t, c.IsBulkResolving())
}

func TestRefreshCompletesBeforeClear(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{watch("a", "10", "E1", "", false)}}
	clearedDuringRefresh := -1
	ref := &fakeRefresher{}
	ref.onWatched = func() {
		src.mu.Lock()
		clearedDuringRefresh = src.cleared
		src.mu.Unlock()
	}
	c, _, _ := newTestCoordinator(src, &fakeAPI{}, ref)

	_, err := c.ResolveSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, clearedDuringRefresh)
	assert.Equal(t, 1, src.cleared)
}

func TestFailedRefreshKeepsSelection(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{watch("a", "10", "E1", "", false)}}
	ref := &fakeRefresher{watchedErr: errors.New("timeout")}
	c, _, _ := newTestCoordinator(src, &fakeAPI{}, ref)

	res, err := c.ResolveSelected(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Cleared)
	assert.Zero(t, src.cleared)
}

func TestResumeOnlyPausedAndRefreshesBoth(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{
		watch("a", "10", "E1", model.OrderStatusPaused, false),
		watch("b", "11", "E1", model.OrderStatusActive, false),
		watch("c", "12", "E2", "paused", true),
	}}
	api := &fakeAPI{}
	ref := &fakeRefresher{}
	c, n, _ := newTestCoordinator(src, api, ref)

	assert.True(t, c.CanResumeSelected())
	res, err := c.ResumeSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]model.OrderID{{"10", "12"}}, api.resumes)
	assert.True(t, res.Cleared)
	assert.ElementsMatch(t, []string{"watched", "open"}, ref.calls)
	assert.Equal(t, notify.LevelSuccess, lastNotice(t, n).Level)
}

func TestResumeNothingPaused(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{watch("a", "10", "E1", model.OrderStatusActive, false)}}
	api := &fakeAPI{}
	c, _, _ := newTestCoordinator(src, api, &fakeRefresher{})

	assert.False(t, c.CanResumeSelected())
	assert.True(t, c.CanResolveSelected())
	_, err := c.ResumeSelected(context.Background())
	assert.ErrorIs(t, err, ErrNothingToResume)
	assert.Zero(t, api.calls())
}

func TestBulkActionsExcludeEachOther(t *testing.T) {
	src := &fakeSource{selected: []model.WatchRecord{watch("a", "10", "E1", model.OrderStatusPaused, false)}}
	api := &fakeAPI{block: make(chan struct{}), entered: make(chan struct{})}
	c, _, _ := newTestCoordinator(src, api, &fakeRefresher{})

	errCh := make(chan error, 1)
	go func() {
		_, err := c.ResolveSelected(context.Background())
		errCh <- err
	}()

	select {
	case <-api.entered:
	case <-time.After(time.Second):
		t.Fatal("resolve never reached the API")
	}

	assert.True(t, c.IsBulkResolving())
	assert.False(t, c.CanResolveSelected())
	assert.False(t, c.CanResumeSelected())

	_, err := c.ResumeSelected(context.Background())
	assert.ErrorIs(t, err, ErrBulkInFlight)
	_, err = c.ResolveSelected(context.Background())
	assert.ErrorIs(t, err, ErrBulkInFlight)

	close(api.block)
	require.NoError(t, <-errCh)
	assert.False(t, c.IsBulkResolving())
	assert.Equal(t, 1, api.calls())
}
