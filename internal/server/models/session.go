package models

// Session identifies the signed-in user of an interactive front end.
// The zero value means nobody is signed in.
type Session struct {
	UserID   string
	UserName string
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != ""
}
