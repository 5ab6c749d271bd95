package models

// Credentials is the body of POST /login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the response of POST /login.
type LoginResult struct {
	AccessToken string   `json:"access_token"`
	User        Identity `json:"user"`
}

// Registration is the body of POST /register.
type Registration struct {
	Name                 string `json:"name"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Upload is an in-memory file attached to a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProfileUpdate is the form sent to POST /user/profile. Avatar replaces the
// picture; ClearAvatar removes it and is ignored when Avatar is set.
type ProfileUpdate struct {
	Name        string
	Username    string
	Bio         string
	Nationality string
	Public      bool
	Avatar      *Upload
	ClearAvatar bool
}

// GroupChange is the body of PUT /admin/users/{id}/group.
type GroupChange struct {
	Group string `json:"group"`
}
