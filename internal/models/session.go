package models

import (
	"time"
)

// Session is the authenticated identity of the current saj process.
// Depending on the auth mode it holds either the identity fields or a bearer token.
type Session struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Role     string `json:"role"`

	// Token is only used in bearer mode
	Token string `json:"token,omitempty"`
}

// IsZero reports whether no session field is set
func (s Session) IsZero() bool {
	return s == Session{}
}

// StorageEntry is one persisted key of the local session storage
type StorageEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredCookie is a cookie received from the API and kept across restarts
type StoredCookie struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Host+Path+Name identify a cookie the same way a browser does
	Host     string     `gorm:"not null;uniqueIndex:idx_cookie_identity" json:"host"`
	Path     string     `gorm:"not null;uniqueIndex:idx_cookie_identity" json:"path"`
	Name     string     `gorm:"not null;uniqueIndex:idx_cookie_identity" json:"name"`
	Scheme   string     `gorm:"not null;default:http" json:"scheme"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Expires  *time.Time `json:"expires"`
	Secure   bool       `json:"secure"`
	HttpOnly bool       `json:"http_only"`
}
