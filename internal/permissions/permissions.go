package permissions

import (
	"github.com/google/uuid"

	"bookreview/internal/models"
)

// Action is the transport-agnostic operation being attempted on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// The evaluators below are pure: they never touch storage and never mutate
// their arguments. A nil user means the caller is anonymous.

// IsAdmin reports whether the user has admin rights, either through the admin
// role or the superuser flag.
func IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.Superuser || u.Role == models.RoleAdmin
}

// CanWriteCatalog gates genre and book mutations: reads are always allowed,
// every other action requires admin rights.
func CanWriteCatalog(u *models.User, action Action) bool {
	if action == ActionRead {
		return true
	}
	return IsAdmin(u)
}

// CanActOnAuthoredResource gates reviews and comments. Reads are open, creates
// require an authenticated user, updates and deletes require ownership or the
// moderator/admin role. The superuser flag carries no weight here, it only
// elevates catalog and directory access through IsAdmin. Unknown actions deny.
func CanActOnAuthoredResource(u *models.User, action Action, authorID uuid.UUID) bool {
	switch action {
	case ActionRead:
		return true
	case ActionCreate:
		return u != nil
	case ActionUpdate, ActionDelete:
		if u == nil {
			return false
		}
		if u.ID == authorID {
			return true
		}
		return u.Role == models.RoleAdmin || u.Role == models.RoleModerator
	default:
		return false
	}
}
