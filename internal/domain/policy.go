package domain

import "strings"

// Role identifiers assigned by the upstream account service.
const (
	RoleAdministrator    int64 = 1
	RoleTechnicalManager int64 = 2
	RoleConsultant       int64 = 3
	RoleClient           int64 = 4
)

// elevatedRoles is the fixed set of administrator-tier roles that bypass
// ownership-based action gating. Policy constant, never derived from data.
var elevatedRoles = map[int64]struct{}{
	RoleAdministrator:    {},
	RoleTechnicalManager: {},
}

// HasElevatedRole reports whether the role id is administrator-tier.
func HasElevatedRole(roleID int64) bool {
	_, ok := elevatedRoles[roleID]
	return ok
}

// Actions is the set of row actions offered to a viewer for one task.
type Actions struct {
	CanStart    bool
	CanComplete bool
	CanTransfer bool
	CanArchive  bool
}

// PermittedActions maps a task's raw status label and the viewer's
// relationship to the task onto the offered actions.
//
// Pending tasks can be started by their responsible party. In-progress
// tasks can be completed, transferred, or archived by the responsible
// party or an elevated role. Every other status, including labels that
// fail to classify, offers nothing: the policy fails closed rather than
// guessing at an unrecognised backend label.
func PermittedActions(status string, viewerIsResponsible, viewerHasElevatedRole bool) Actions {
	switch NormalizeStatus(status) {
	case StatusPending:
		if viewerIsResponsible {
			return Actions{CanStart: true}
		}
	case StatusInProgress:
		if viewerIsResponsible || viewerHasElevatedRole {
			return Actions{CanComplete: true, CanTransfer: true, CanArchive: true}
		}
	}
	return Actions{}
}

// IsResponsible reports whether the viewer is the task's responsible
// party. The numeric id comparison is authoritative when both sides
// carry one. When the record has only a display name, the match falls
// back to case-insensitive name/email containment.
//
// The fallback is known to be fuzzy: one person's name being a substring
// of another's produces a false positive. Kept for parity with records
// that predate responsible ids; flagged to product rather than settled.
func IsResponsible(v Viewer, t *TaskRecord) bool {
	if t.ResponsibleID != nil {
		return *t.ResponsibleID == v.UserID
	}
	name := strings.ToLower(strings.TrimSpace(t.ResponsibleName))
	if name == "" {
		return false
	}
	if vn := strings.ToLower(strings.TrimSpace(v.DisplayName)); vn != "" && strings.Contains(name, vn) {
		return true
	}
	if ve := strings.ToLower(strings.TrimSpace(v.Email)); ve != "" && strings.Contains(name, ve) {
		return true
	}
	return false
}

// PermittedActionsFor is the viewer-level convenience over
// PermittedActions.
func PermittedActionsFor(v Viewer, t *TaskRecord) Actions {
	return PermittedActions(t.Status, IsResponsible(v, t), HasElevatedRole(v.RoleID))
}
