// Package access decides whether a principal may perform an action.
//
// May is a pure function of its arguments: it reads no storage and has no side effects.
// Rules are evaluated in order and the first match wins:
//
//  1. register, login, view_public_page and contact are open to everyone.
//  2. create_note requires an authenticated principal.
//  3. delete_note requires the note's author or an admin.
//  4. view_admin_panel requires an admin.
//  5. Anything else is denied to anonymous principals; authenticated principals may
//     only view their own dashboard.
package access

import (
	"fmt"

	"cloudnotes/internal/domain"
)

type Action string

const (
	ActionRegister       Action = "register"
	ActionLogin          Action = "login"
	ActionViewPublicPage Action = "view_public_page"
	ActionContact        Action = "contact"
	ActionCreateNote     Action = "create_note"
	ActionViewDashboard  Action = "view_dashboard"
	ActionDeleteNote     Action = "delete_note"
	ActionViewAdminPanel Action = "view_admin_panel"
)

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// May evaluates the access rules. note is only consulted for ActionDeleteNote.
func May(p domain.Principal, action Action, note *domain.Note) Decision {
	switch action {
	case ActionRegister, ActionLogin, ActionViewPublicPage, ActionContact:
		return Allow
	case ActionCreateNote:
		return Decision(p.IsAuthenticated())
	case ActionDeleteNote:
		if note == nil || !p.IsAuthenticated() {
			return Deny
		}
		return Decision(p.Is(note.AuthorID) || p.IsAdmin)
	case ActionViewAdminPanel:
		return Decision(p.IsAuthenticated() && p.IsAdmin)
	}
	if !p.IsAuthenticated() {
		return Deny
	}
	return Decision(action == ActionViewDashboard)
}

// Authorize is May returning domain.ErrUnauthorized on deny.
func Authorize(p domain.Principal, action Action, note *domain.Note) error {
	if May(p, action, note) == Allow {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrUnauthorized, action)
}
