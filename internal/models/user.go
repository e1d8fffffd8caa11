package models

// User is the read-only profile view this service needs. Registration and
// credential management live in the auth service.
type User struct {
	ID         int    `db:"id" json:"id"`
	Username   string `db:"username" json:"username"`
	ProfileImg string `db:"profile_img" json:"profile_img,omitempty"`
}
