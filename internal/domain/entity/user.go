package entity

// User is an account identified by a unique username.
// Authorisation is scoped to username lookup only; there is no password
// or session concept in this system.
type User struct {
	PK       int64
	Username string
}
