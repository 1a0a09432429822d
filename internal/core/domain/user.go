package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User models a principal. The credential hash and account bookkeeping fields
// are never serialized into responses.
type User struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name"`
	Email             string             `json:"email" bson:"email"`
	Photo             string             `json:"photo,omitempty" bson:"photo,omitempty"`
	Role              string             `json:"role" bson:"role"`
	PasswordHash      string             `json:"-" bson:"password"`
	PasswordChangedAt time.Time          `json:"-" bson:"passwordChangedAt,omitempty"`
	PasswordResetHash string             `json:"-" bson:"passwordResetToken,omitempty"`
	PasswordResetExp  time.Time          `json:"-" bson:"passwordResetExpires,omitempty"`
	Active            bool               `json:"-" bson:"active"`
	CreatedAt         time.Time          `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt,omitempty" bson:"updatedAt"`
}

// HasAnyRole reports whether the principal's role is in the permitted set.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// PasswordChangedAfter reports whether the principal's password was changed
// after the given credential issuance time. A credential issued before the
// last password change is no longer valid.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	// Compare at second precision: token iat claims carry unix seconds.
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}
