package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/engine"
	"github.com/ohsdesk/mesa/internal/tablesession"
)

// ---------------------------------------------------------------------------
// View / loading.
// ---------------------------------------------------------------------------

func TestEngine_View_LoadsOnFirstTouch(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			domain.TaskRecord{ID: 1, Status: "pending", Purpose: "PGR", Company: "Acme"},
			domain.TaskRecord{ID: 2, Status: "automatic", Purpose: "PCMSO", Company: "Borealis"},
		),
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	view, err := e.View(ctx, testViewer)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, int64(1), view.Rows[0].Task.ID)
	assert.Equal(t, tablesession.NewFilters(), view.Filters)
	assert.ElementsMatch(t, []string{"PGR", "PCMSO"}, view.Domains.Purposes)

	// Second view must not refetch.
	_, err = e.View(ctx, testViewer)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.fetchCount)
}

func TestEngine_View_LoadFailurePropagates(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: func(context.Context, string) ([]domain.TaskRecord, error) {
			return nil, errors.New("upstream down")
		},
	}
	e, _ := newTestEngine(svc)

	_, err := e.View(context.Background(), testViewer)
	require.Error(t, err)
}

func TestEngine_Refresh_KeepsLastKnownGoodOnFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	svc := &fakeTaskService{}
	svc.fetchTasksFunc = func(context.Context, string) ([]domain.TaskRecord, error) {
		calls++
		if calls == 1 {
			return []domain.TaskRecord{{ID: 1, Status: "pending"}}, nil
		}
		return nil, errors.New("upstream down")
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	require.NoError(t, e.Refresh(ctx))
	require.Error(t, e.Refresh(ctx))

	view, err := e.View(ctx, testViewer)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1, "failed refresh must retain the last good record set")
	assert.Equal(t, int64(1), view.Rows[0].Task.ID)
}

// ---------------------------------------------------------------------------
// Row actions surfaced per viewer.
// ---------------------------------------------------------------------------

func TestEngine_View_ActionsFollowPolicy(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			domain.TaskRecord{ID: 1, Status: "pending", ResponsibleID: int64p(7)},
			domain.TaskRecord{ID: 2, Status: "in_progress", ResponsibleID: int64p(99)},
			domain.TaskRecord{ID: 3, Status: "completed", ResponsibleID: int64p(7)},
		),
	}
	e, _ := newTestEngine(svc)

	view, err := e.View(context.Background(), testViewer)
	require.NoError(t, err)
	require.Len(t, view.Rows, 3)

	assert.Equal(t, domain.Actions{CanStart: true}, view.Rows[0].Actions)
	assert.Equal(t, domain.Actions{}, view.Rows[1].Actions, "not responsible, not elevated")
	assert.Equal(t, domain.Actions{}, view.Rows[2].Actions, "terminal status offers nothing")

	adminView, err := e.View(context.Background(), adminViewer)
	require.NoError(t, err)
	assert.Equal(t, domain.Actions{CanComplete: true, CanTransfer: true, CanArchive: true},
		adminView.Rows[1].Actions, "elevated role bypasses ownership on in-progress rows")
}

// ---------------------------------------------------------------------------
// Filters and selection through the engine.
// ---------------------------------------------------------------------------

func TestEngine_SetFilters_NarrowsView(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			domain.TaskRecord{ID: 1, Status: "pending", Purpose: "PGR"},
			domain.TaskRecord{ID: 2, Status: "automatic", Purpose: "PGR"},
			domain.TaskRecord{ID: 3, Status: "pending", Purpose: "PCMSO"},
		),
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	got, err := e.SetFilters(ctx, tablesession.Filters{Purpose: tablesession.FilterAll, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)

	view, err := e.View(ctx, testViewer)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, int64(1), view.Rows[0].Task.ID)
	assert.Equal(t, int64(3), view.Rows[1].Task.ID)

	// Purpose domain is narrowed by the status selection.
	assert.ElementsMatch(t, []string{"PGR", "PCMSO"}, view.Domains.Purposes)
}

func TestEngine_SetFilters_StaleValueResets(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(domain.TaskRecord{ID: 1, Status: "pending", Purpose: "PGR"}),
	}
	e, _ := newTestEngine(svc)

	got, err := e.SetFilters(context.Background(), tablesession.Filters{Purpose: "GONE", Status: tablesession.FilterAll})
	require.NoError(t, err)
	assert.Equal(t, tablesession.FilterAll, got.Purpose)
}

func TestEngine_SetFilters_StaleValueResetDoesNotNarrowDomains(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			domain.TaskRecord{ID: 1, Status: "pending", Purpose: "PGR"},
			domain.TaskRecord{ID: 2, Status: "completed", Purpose: "PCMSO"},
		),
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	got, err := e.SetFilters(ctx, tablesession.Filters{Purpose: "GONE", Status: tablesession.FilterAll})
	require.NoError(t, err)
	require.Equal(t, tablesession.FilterAll, got.Purpose)

	// The served domains must reflect the effective filters, not the
	// stale purpose that was just reset.
	view, err := e.View(ctx, testViewer)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.ElementsMatch(t, []string{"pending", "completed"}, view.Domains.Statuses)
	assert.ElementsMatch(t, []string{"PGR", "PCMSO"}, view.Domains.Purposes)
}

func TestEngine_SelectRows_PrunedToVisible(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			domain.TaskRecord{ID: 1, Status: "pending"},
			domain.TaskRecord{ID: 2, Status: "automatic"},
		),
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	_, err := e.SetFilters(ctx, tablesession.Filters{Purpose: tablesession.FilterAll, Status: "pending"})
	require.NoError(t, err)

	require.NoError(t, e.SelectRows(ctx, []int64{1, 2, 99}))

	view, err := e.View(ctx, testViewer)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, view.SelectedIDs, "hidden and unknown ids are dropped")
}

func TestEngine_ToggleRow(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(domain.TaskRecord{ID: 1, Status: "pending"}),
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	require.NoError(t, e.ToggleRow(ctx, 1))
	view, _ := e.View(ctx, testViewer)
	assert.Equal(t, []int64{1}, view.SelectedIDs)

	require.NoError(t, e.ToggleRow(ctx, 1))
	view, _ = e.View(ctx, testViewer)
	assert.Empty(t, view.SelectedIDs)
}

// ---------------------------------------------------------------------------
// User / sector caches.
// ---------------------------------------------------------------------------

func TestEngine_Users_CachedAfterFirstFetch(t *testing.T) {
	t.Parallel()

	fetches := 0
	svc := &fakeTaskService{
		fetchUsersFunc: func(context.Context, string) ([]domain.User, error) {
			fetches++
			return []domain.User{{ID: 9, DisplayName: "Carla Dias"}}, nil
		},
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	users, err := e.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	_, err = e.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
}

// ---------------------------------------------------------------------------
// Manager.
// ---------------------------------------------------------------------------

func TestManager_GetReturnsSameEnginePerScope(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := engine.NewManager(ctx, &fakeTaskService{}, &recordingSink{}, nil, time.Hour, zerolog.Nop())

	a := m.Get("unit-1")
	b := m.Get("unit-1")
	c := m.Get("unit-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "unit-1", a.Scope())
	assert.Equal(t, "unit-2", c.Scope())
}
