package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"cloudnotes/internal/domain"
)

var (
	alice = domain.PrincipalFor(&domain.User{ID: 1, Username: "alice", Email: "alice@x.com"})
	bob   = domain.PrincipalFor(&domain.User{ID: 2, Username: "bob", Email: "bob@x.com"})
	admin = domain.PrincipalFor(&domain.User{ID: 3, Username: "root", Email: "root@x.com", IsAdmin: true})
	anon  = domain.Anonymous()

	alicesNote = &domain.Note{ID: 10, AuthorID: 1, Content: "hi"}
)

func TestMay(t *testing.T) {
	tests := []struct {
		name   string
		p      domain.Principal
		action Action
		note   *domain.Note
		want   Decision
	}{
		{"anonymous may register", anon, ActionRegister, nil, Allow},
		{"anonymous may login", anon, ActionLogin, nil, Allow},
		{"anonymous may view public page", anon, ActionViewPublicPage, nil, Allow},
		{"anonymous may contact", anon, ActionContact, nil, Allow},
		{"user may register", alice, ActionRegister, nil, Allow},

		{"anonymous may not create note", anon, ActionCreateNote, nil, Deny},
		{"user may create note", alice, ActionCreateNote, nil, Allow},

		{"author may delete own note", alice, ActionDeleteNote, alicesNote, Allow},
		{"other user may not delete note", bob, ActionDeleteNote, alicesNote, Deny},
		{"admin may delete any note", admin, ActionDeleteNote, alicesNote, Allow},
		{"anonymous may not delete note", anon, ActionDeleteNote, alicesNote, Deny},
		{"delete without note is denied", admin, ActionDeleteNote, nil, Deny},

		{"admin may view admin panel", admin, ActionViewAdminPanel, nil, Allow},
		{"user may not view admin panel", alice, ActionViewAdminPanel, nil, Deny},
		{"anonymous may not view admin panel", anon, ActionViewAdminPanel, nil, Deny},

		{"user may view dashboard", alice, ActionViewDashboard, nil, Allow},
		{"anonymous may not view dashboard", anon, ActionViewDashboard, nil, Deny},
		{"unknown action denied for anonymous", anon, Action("export"), nil, Deny},
		{"unknown action denied for user", alice, Action("export"), nil, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, May(tt.p, tt.action, tt.note))
		})
	}
}

func TestMay_AnonymousWithZeroIDIsNotAuthor(t *testing.T) {
	orphan := &domain.Note{ID: 1, AuthorID: 0}
	assert.Equal(t, Deny, May(anon, ActionDeleteNote, orphan))
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(alice, ActionDeleteNote, alicesNote))

	err := Authorize(bob, ActionDeleteNote, alicesNote)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), string(ActionDeleteNote))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}
