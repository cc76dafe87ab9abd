package domain

// Principal is the acting identity of an operation: either a user or anonymous.
// It is always passed explicitly into core operations.
type Principal struct {
	ID       int64
	Username string
	Email    string
	IsAdmin  bool
	authed   bool
}

// Anonymous returns the principal of a request that carries no valid session.
func Anonymous() Principal {
	return Principal{}
}

// PrincipalFor returns the authenticated principal acting as user.
func PrincipalFor(user *User) Principal {
	if user == nil {
		return Anonymous()
	}
	return Principal{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		authed:   true,
	}
}

func (p Principal) IsAuthenticated() bool {
	return p.authed
}

// Is reports whether p is the authenticated user with the given id.
func (p Principal) Is(userID int64) bool {
	return p.authed && p.ID == userID
}
