package services

import (
	"context"

	"github.com/google/uuid"

	"studystreak-backend/internal/models"
)

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Get returns the full record for the user themselves and the public
// profile for anyone else.
func (s *UserService) Get(ctx context.Context, actorID, userID uuid.UUID) (any, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	if actorID == userID {
		return user, nil
	}
	return user.Public(), nil
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, actorID, userID uuid.UUID, prefs models.Preferences) (*models.User, error) {
	if actorID != userID {
		return nil, &ForbiddenError{Message: "You can only change your own preferences"}
	}
	if err := ValidatePreferences(prefs); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"preferred_windows": err.Error()}}
	}
	if err := s.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		return nil, notFound(err, "User not found")
	}
	return s.Me(ctx, userID)
}

func (s *UserService) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID != userID {
		return &ForbiddenError{Message: "You can only delete your own account"}
	}
	return notFound(s.users.Delete(ctx, userID), "User not found")
}
