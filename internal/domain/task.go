package domain

import (
	"strings"
	"time"
)

// StatusCategory is the closed internal classification of a task status.
// Backend status labels drift ("progress" vs "andamento", "completed" vs
// "concluída"), so decision logic never compares raw strings; it matches
// them into a category first.
type StatusCategory string

const (
	StatusAutomatic  StatusCategory = "automatic"
	StatusPending    StatusCategory = "pending"
	StatusInProgress StatusCategory = "in_progress"
	StatusCompleted  StatusCategory = "completed"
	StatusArchived   StatusCategory = "archived"
	StatusUnknown    StatusCategory = "unknown"
)

// Label returns the canonical status string written back to task records.
func (c StatusCategory) Label() string {
	return string(c)
}

// NormalizeStatus maps a raw backend status label to a StatusCategory by
// case-insensitive substring matching. Unrecognised labels map to
// StatusUnknown rather than guessing.
func NormalizeStatus(raw string) StatusCategory {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusUnknown
	case strings.Contains(s, "automat"):
		return StatusAutomatic
	case strings.Contains(s, "pend"):
		return StatusPending
	case strings.Contains(s, "conclu") || strings.Contains(s, "complet"):
		return StatusCompleted
	case strings.Contains(s, "arquiv") || strings.Contains(s, "archiv"):
		return StatusArchived
	case strings.Contains(s, "andament") || strings.Contains(s, "prog"):
		return StatusInProgress
	default:
		return StatusUnknown
	}
}

// PurposeNone is the grouping category for tasks with a blank purpose.
// It is a real category, distinct from the "all" filter sentinel.
const PurposeNone = "(no purpose)"

// NormalizePurpose folds blank purposes into PurposeNone.
func NormalizePurpose(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return PurposeNone
	}
	return p
}

// TaskRecord is the unit of work tracked by the table engine. Records are
// loaded wholesale from the upstream task service; the engine mutates
// fields and relative order but never creates records.
type TaskRecord struct {
	ID              int64
	Company         string
	Unit            string
	Purpose         string
	Sector          string
	SectorID        *int64
	Status          string
	Priority        string
	ResponsibleName string
	ResponsibleID   *int64 // may be nil even when ResponsibleName is set
	DueDate         *time.Time
	UpdatedAt       *time.Time
}

// StatusCategory classifies the record's raw status label.
func (t *TaskRecord) StatusCategory() StatusCategory {
	return NormalizeStatus(t.Status)
}

// FieldPatch is a partial update to a TaskRecord. Nil fields are left
// untouched. ResponsibleID and ResponsibleName must always travel
// together so a record never carries a name that contradicts its id.
type FieldPatch struct {
	Status          *string
	Priority        *string
	ResponsibleID   *int64
	ResponsibleName *string
	SectorID        *int64
	SectorName      *string
	DueDate         *time.Time
}

// Apply merges the patch into the record and bumps UpdatedAt.
func (p FieldPatch) Apply(t *TaskRecord) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ResponsibleID != nil {
		t.ResponsibleID = p.ResponsibleID
	}
	if p.ResponsibleName != nil {
		t.ResponsibleName = *p.ResponsibleName
	}
	if p.SectorID != nil {
		t.SectorID = p.SectorID
	}
	if p.SectorName != nil {
		t.Sector = *p.SectorName
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	now := time.Now()
	t.UpdatedAt = &now
}
