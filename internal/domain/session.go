package domain

// AdminProfile is the cached profile of the signed-in console operator.
type AdminProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// AuthSession is the client-side session: token, refresh token and cached profile.
type AuthSession struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	Profile      *AdminProfile `json:"user,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the data returned by POST /auth/login and /auth/refresh.
type LoginResult struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         AdminProfile `json:"user"`
}

// Session converts a login result into the persisted session shape.
func (r LoginResult) Session() *AuthSession {
	profile := r.User
	return &AuthSession{
		Token:        r.Token,
		RefreshToken: r.RefreshToken,
		Profile:      &profile,
	}
}
