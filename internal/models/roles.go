package models

import (
	"fmt"
	"strings"
)

// Role is the capability carried by the user issuing a mutation
type Role string

const (
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleStaff
}

// CanDeleteSubtasks reports whether the role may delete subtasks
func (r Role) CanDeleteSubtasks() bool {
	return r == RoleManager
}

// ParseRole parses a role name
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, raw)
	}
	return r, nil
}

// Actor identifies who issues a mutation and with which role
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) String() string {
	return a.UserID + " (" + string(a.Role) + ")"
}

// CollaboratorRole tags a collaborator association
type CollaboratorRole string

const (
	CollaboratorViewer CollaboratorRole = "viewer"
	CollaboratorEditor CollaboratorRole = "editor"
)

// ParseCollaboratorRole parses viewer or editor
func ParseCollaboratorRole(raw string) (CollaboratorRole, error) {
	switch r := CollaboratorRole(strings.ToLower(strings.TrimSpace(raw))); r {
	case CollaboratorViewer, CollaboratorEditor:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown collaborator role %q", ErrValidation, raw)
}

// Surface is the UI context a mutation was issued from. Recorded for
// provenance only.
type Surface string

const (
	SurfaceList   Surface = "list_view"
	SurfaceBoard  Surface = "kanban_board"
	SurfaceDetail Surface = "detail_view"
)

// Valid reports whether s is a known surface
func (s Surface) Valid() bool {
	return s == SurfaceList || s == SurfaceBoard || s == SurfaceDetail
}

// ParseSurface parses a surface tag
func ParseSurface(raw string) (Surface, error) {
	s := Surface(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown surface %q", ErrValidation, raw)
	}
	return s, nil
}
