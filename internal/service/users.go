package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/domain"
	"github.com/m3rciful/shopbot/internal/repository"
)

// UserRepo is the users table as the services see it.
type UserRepo interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// AdminRepo is the admins table as the services see it.
type AdminRepo interface {
	Get(ctx context.Context, userID int64) (domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)
}

// Users answers who may use the bot and with which privileges.
type Users struct {
	users  UserRepo
	admins AdminRepo
}

// NewUsers constructs the access service.
func NewUsers(users UserRepo, admins AdminRepo) (*Users, error) {
	if users == nil || admins == nil {
		return nil, errors.New("service: users and admins repositories are required")
	}
	return &Users{users: users, admins: admins}, nil
}

// Allowed reports whether the account is a registered user or an admin.
func (s *Users) Allowed(ctx context.Context, userID int64) (bool, error) {
	_, err := s.users.Get(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, err
	}
	_, ok, err := s.AdminLevel(ctx, userID)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Debug(ctx, "service.users", "access.denied", slog.Int64("user_id", userID))
	}
	return ok, nil
}

// AdminLevel returns the admin access level of the account; ok is false for non-admins.
func (s *Users) AdminLevel(ctx context.Context, userID int64) (int, bool, error) {
	a, err := s.admins.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return a.AccessLevel, true, nil
}

// IsAdmin reports whether the account has any admin record.
func (s *Users) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	_, ok, err := s.AdminLevel(ctx, userID)
	return ok, err
}

// Profile returns the stored user. Admins without a user row get a synthesized profile.
func (s *Users) Profile(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, err
	}
	a, aerr := s.admins.Get(ctx, userID)
	if aerr != nil {
		if errors.Is(aerr, repository.ErrNotFound) {
			return domain.User{}, newError(ErrorNotFound, "profile", err)
		}
		return domain.User{}, aerr
	}
	return domain.User{ID: a.UserID, Name: a.Name, Type: "Admin", CreatedAt: a.CreatedAt}, nil
}

// GetUserByTelegramID looks the sender up for handlers.
func (s *Users) GetUserByTelegramID(ctx context.Context, telegramID int64) (domain.User, error) {
	return s.Profile(ctx, telegramID)
}

// AdminIDs lists the accounts that receive shop notifications.
func (s *Users) AdminIDs(ctx context.Context) ([]int64, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.UserID)
	}
	return ids, nil
}
