package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

// UserService covers the self-service account operations that sit beside the
// admin CRUD factory.
type UserService struct {
	users ports.UserRepository
}

func NewUserService(users ports.UserRepository) *UserService {
	return &UserService{users: users}
}

// UpdateMeInput is the allow-list of self-updatable fields. Password changes
// go through the auth service exclusively.
type UpdateMeInput struct {
	Name  string
	Email string
	Photo string
}

// UpdateMe applies the filtered patch to the principal's own record.
func (s *UserService) UpdateMe(ctx context.Context, user *domain.User, in UpdateMeInput) (*domain.User, error) {
	patch := bson.M{"updatedAt": time.Now().UTC()}
	if in.Name != "" {
		patch["name"] = in.Name
	}
	if in.Email != "" {
		patch["email"] = normalizeEmail(in.Email)
	}
	if in.Photo != "" {
		patch["photo"] = in.Photo
	}

	return s.users.UpdateByID(ctx, user.ID.Hex(), patch)
}

// DeactivateMe soft-deletes the principal; the record survives but stops
// resolving in queries.
func (s *UserService) DeactivateMe(ctx context.Context, user *domain.User) error {
	return s.users.Deactivate(ctx, user.ID)
}
