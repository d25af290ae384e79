package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/notify"
)

// TestBulkDesignate_PartialFailure covers the load-bearing property of
// the batch: a failing row never blocks or reverts its siblings. Rows
// 2 and 4 fail remotely; 1, 3, 5 must end up pending, 2 and 4 must be
// left untouched, and the selection must be empty either way.
func TestBulkDesignate_PartialFailure(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			automaticTask(1, int64p(7), "Ana Souza"),
			automaticTask(2, int64p(7), "Ana Souza"),
			automaticTask(3, int64p(7), "Ana Souza"),
			automaticTask(4, int64p(7), "Ana Souza"),
			automaticTask(5, int64p(7), "Ana Souza"),
		),
		setTaskFieldsFunc: func(_ context.Context, id int64, _ domain.FieldPatch) (*domain.TaskRecord, error) {
			if id == 2 || id == 4 {
				return nil, errors.New("backend rejected")
			}
			return &domain.TaskRecord{ID: id}, nil
		},
	}
	e, sink := newTestEngine(svc)
	ctx := context.Background()

	require.NoError(t, e.SelectRows(ctx, []int64{1, 2, 3, 4, 5}))
	require.NoError(t, e.BulkDesignate(ctx))

	view, err := e.View(ctx, testViewer)
	require.NoError(t, err)
	statuses := map[int64]string{}
	for _, row := range view.Rows {
		statuses[row.Task.ID] = row.Task.Status
	}
	assert.Equal(t, "pending", statuses[1])
	assert.Equal(t, "automatic", statuses[2])
	assert.Equal(t, "pending", statuses[3])
	assert.Equal(t, "automatic", statuses[4])
	assert.Equal(t, "pending", statuses[5])

	assert.Empty(t, view.SelectedIDs, "selection cleared regardless of failures")

	failures := sink.bySeverity(notify.SeverityError)
	require.Len(t, failures, 1, "aggregate failure reported once")
	assert.Contains(t, failures[0].text, "2 of 5")
}

func TestBulkDesignate_AllSucceed(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			automaticTask(1, int64p(7), "Ana Souza"),
			automaticTask(2, int64p(8), "Bruno Lima"),
		),
	}
	e, sink := newTestEngine(svc)
	ctx := context.Background()

	require.NoError(t, e.SelectRows(ctx, []int64{1, 2}))
	require.NoError(t, e.BulkDesignate(ctx))

	assert.ElementsMatch(t, []int64{1, 2}, svc.recordedSetIDs())
	require.Len(t, sink.bySeverity(notify.SeveritySuccess), 1)
	assert.Empty(t, sink.bySeverity(notify.SeverityError))

	view, _ := e.View(ctx, testViewer)
	for _, row := range view.Rows {
		assert.Equal(t, "pending", row.Task.Status)
	}
}

// TestBulkDesignate_IneligibleByStatusExcluded pins the pre-network
// partition: a non-automatic row in the selection is dropped before any
// call is issued.
func TestBulkDesignate_IneligibleByStatusExcluded(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			automaticTask(10, int64p(7), "Ana Souza"),
			domain.TaskRecord{ID: 11, Status: "pending", ResponsibleID: int64p(7)},
			automaticTask(12, int64p(7), "Ana Souza"),
		),
	}
	e, _ := newTestEngine(svc)
	ctx := context.Background()

	require.NoError(t, e.SelectRows(ctx, []int64{10, 11, 12}))
	require.NoError(t, e.BulkDesignate(ctx))

	assert.ElementsMatch(t, []int64{10, 12}, svc.recordedSetIDs(),
		"only automatic rows may reach the network")

	view, _ := e.View(ctx, testViewer)
	statuses := map[int64]string{}
	for _, row := range view.Rows {
		statuses[row.Task.ID] = row.Task.Status
	}
	assert.Equal(t, "pending", statuses[11], "ineligible row untouched")
}

func TestBulkDesignate_NothingEligibleAborts(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			domain.TaskRecord{ID: 1, Status: "pending", ResponsibleID: int64p(7)},
			domain.TaskRecord{ID: 2, Status: "completed", ResponsibleID: int64p(7)},
		),
	}
	e, sink := newTestEngine(svc)
	ctx := context.Background()

	require.NoError(t, e.SelectRows(ctx, []int64{1, 2}))
	require.NoError(t, e.BulkDesignate(ctx))

	assert.Empty(t, svc.recordedSetIDs(), "abort performs no network calls")
	require.Len(t, sink.bySeverity(notify.SeverityWarning), 1)
}

func TestBulkDesignate_MissingResponsibleWarnedAndSkipped(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(
			automaticTask(1, int64p(7), "Ana Souza"),
			automaticTask(2, nil, ""),
			automaticTask(3, nil, ""),
		),
	}
	e, sink := newTestEngine(svc)
	ctx := context.Background()

	require.NoError(t, e.SelectRows(ctx, []int64{1, 2, 3}))
	require.NoError(t, e.BulkDesignate(ctx))

	assert.Equal(t, []int64{1}, svc.recordedSetIDs())

	warnings := sink.bySeverity(notify.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].text, "2")
}

func TestBulkDesignate_EmptySelectionIsANonEvent(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		fetchTasksFunc: tasksFixture(automaticTask(1, int64p(7), "Ana Souza")),
	}
	e, sink := newTestEngine(svc)

	require.NoError(t, e.BulkDesignate(context.Background()))
	assert.Empty(t, svc.recordedSetIDs())
	assert.Empty(t, sink.notices)
}
