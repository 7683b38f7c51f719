package core

// User is an authenticated account. ID is stable across sign-ins.
type User struct {
	ID    string
	Email string
	Name  string
}

// DisplayName prefers the name, then the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
