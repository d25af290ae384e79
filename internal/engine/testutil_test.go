package engine_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/engine"
	"github.com/ohsdesk/mesa/internal/notify"
	"github.com/ohsdesk/mesa/internal/remote"
)

// ---------------------------------------------------------------------------
// Fake TaskService: func fields with call recording. The recorder is
// mutex-guarded because bulk batches call concurrently.
// ---------------------------------------------------------------------------

type setCall struct {
	id    int64
	patch domain.FieldPatch
}

type fakeTaskService struct {
	mu sync.Mutex

	fetchTasksFunc    func(ctx context.Context, scope string) ([]domain.TaskRecord, error)
	setTaskFieldsFunc func(ctx context.Context, id int64, patch domain.FieldPatch) (*domain.TaskRecord, error)
	deleteTaskFunc    func(ctx context.Context, id int64) error
	persistOrderFunc  func(ctx context.Context, scope string, ids []int64) error
	fetchUsersFunc    func(ctx context.Context, scope string) ([]domain.User, error)
	fetchSectorsFunc  func(ctx context.Context) ([]domain.Sector, error)

	fetchCount   int
	setCalls     []setCall
	deleteCalls  []int64
	persistCalls [][]int64
}

var _ remote.TaskService = (*fakeTaskService)(nil)

func (f *fakeTaskService) FetchTasks(ctx context.Context, scope string) ([]domain.TaskRecord, error) {
	f.mu.Lock()
	f.fetchCount++
	f.mu.Unlock()
	if f.fetchTasksFunc != nil {
		return f.fetchTasksFunc(ctx, scope)
	}
	return nil, nil
}

func (f *fakeTaskService) SetTaskFields(ctx context.Context, id int64, patch domain.FieldPatch) (*domain.TaskRecord, error) {
	f.mu.Lock()
	f.setCalls = append(f.setCalls, setCall{id: id, patch: patch})
	f.mu.Unlock()
	if f.setTaskFieldsFunc != nil {
		return f.setTaskFieldsFunc(ctx, id, patch)
	}
	return &domain.TaskRecord{ID: id}, nil
}

func (f *fakeTaskService) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, id)
	f.mu.Unlock()
	if f.deleteTaskFunc != nil {
		return f.deleteTaskFunc(ctx, id)
	}
	return nil
}

func (f *fakeTaskService) PersistOrder(ctx context.Context, scope string, ids []int64) error {
	f.mu.Lock()
	ordered := make([]int64, len(ids))
	copy(ordered, ids)
	f.persistCalls = append(f.persistCalls, ordered)
	f.mu.Unlock()
	if f.persistOrderFunc != nil {
		return f.persistOrderFunc(ctx, scope, ids)
	}
	return nil
}

func (f *fakeTaskService) FetchUsersForUnit(ctx context.Context, scope string) ([]domain.User, error) {
	if f.fetchUsersFunc != nil {
		return f.fetchUsersFunc(ctx, scope)
	}
	return nil, nil
}

func (f *fakeTaskService) FetchSectors(ctx context.Context) ([]domain.Sector, error) {
	if f.fetchSectorsFunc != nil {
		return f.fetchSectorsFunc(ctx)
	}
	return nil, nil
}

func (f *fakeTaskService) recordedSetIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.setCalls))
	for _, c := range f.setCalls {
		ids = append(ids, c.id)
	}
	return ids
}

// ---------------------------------------------------------------------------
// Recording notification sink.
// ---------------------------------------------------------------------------

type recordedNotice struct {
	severity notify.Severity
	text     string
}

type recordingSink struct {
	mu      sync.Mutex
	notices []recordedNotice
}

func (r *recordingSink) Notify(_ context.Context, _ string, severity notify.Severity, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, recordedNotice{severity, text})
}

func (r *recordingSink) bySeverity(s notify.Severity) []recordedNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedNotice
	for _, n := range r.notices {
		if n.severity == s {
			out = append(out, n)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Engine wiring helpers.
// ---------------------------------------------------------------------------

func newTestEngine(svc *fakeTaskService) (*engine.Engine, *recordingSink) {
	sink := &recordingSink{}
	e := engine.New("unit-1", svc, sink, nil, zerolog.Nop())
	return e, sink
}

func tasksFixture(records ...domain.TaskRecord) func(context.Context, string) ([]domain.TaskRecord, error) {
	return func(context.Context, string) ([]domain.TaskRecord, error) {
		out := make([]domain.TaskRecord, len(records))
		copy(out, records)
		return out, nil
	}
}

func int64p(v int64) *int64 { return &v }

func automaticTask(id int64, responsibleID *int64, responsibleName string) domain.TaskRecord {
	return domain.TaskRecord{
		ID:              id,
		Company:         "Acme Mining",
		Purpose:         "PGR",
		Status:          "automatic",
		ResponsibleID:   responsibleID,
		ResponsibleName: responsibleName,
	}
}

var testViewer = domain.Viewer{
	UserID:      7,
	DisplayName: "Ana Souza",
	Email:       "ana@example.com",
	RoleID:      domain.RoleConsultant,
}

var adminViewer = domain.Viewer{
	UserID:      1,
	DisplayName: "Root Admin",
	RoleID:      domain.RoleAdministrator,
}
