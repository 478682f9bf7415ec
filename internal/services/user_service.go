package services

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookreview/internal/models"
	"bookreview/internal/repositories"
)

// UserPatch carries the mutable user fields; nil means "leave unchanged".
// Role is only honored on the admin path, never on self-service updates.
type UserPatch struct {
	Email    *string
	Username *string
	Bio      *string
	Role     *models.Role
}

// UserInput carries the fields for an admin-created account.
type UserInput struct {
	Email    string
	Username string
	Bio      string
	Role     models.Role
}

// UserService is the user directory: admin CRUD over accounts plus the
// self-service profile operations.
type UserService interface {
	Create(input UserInput) (*models.User, error)
	GetByID(id uuid.UUID) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	List(offset, limit int) ([]models.User, error)
	UpdateByUsername(username string, patch UserPatch) (*models.User, error)
	UpdateSelf(id uuid.UUID, patch UserPatch) (*models.User, error)
	DeleteByUsername(username string) error
}

type userService struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
}

func NewUserService(db *gorm.DB, userRepo repositories.UserRepository) UserService {
	return &userService{db: db, userRepo: userRepo}
}

func (s *userService) Create(input UserInput) (*models.User, error) {
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, fmt.Errorf("%w: malformed email %q", models.ErrValidation, input.Email)
	}
	if strings.TrimSpace(input.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if input.Role == "" {
		input.Role = models.RoleUser
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, input.Role)
	}

	user := &models.User{
		Email:    input.Email,
		Username: input.Username,
		Bio:      input.Bio,
		Role:     input.Role,
	}
	if err := s.userRepo.Create(nil, user); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email or username already taken", models.ErrValidation)
		}
		return nil, err
	}
	log.Printf("[INFO] Create: user %s (%s) created with role %s", user.ID, user.Username, user.Role)
	return user, nil
}

func (s *userService) GetByID(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByUsername(username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) List(offset, limit int) ([]models.User, error) {
	return s.userRepo.List(nil, offset, limit)
}

func (s *userService) UpdateByUsername(username string, patch UserPatch) (*models.User, error) {
	var updated *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByUsername(tx, username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %q", models.ErrNotFound, username)
			}
			return err
		}
		if err := applyUserPatch(user, patch, true); err != nil {
			return err
		}
		if err := s.userRepo.Update(tx, user); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email or username already taken", models.ErrValidation)
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] UpdateByUsername: user %s updated", updated.ID)
	return updated, nil
}

func (s *userService) UpdateSelf(id uuid.UUID, patch UserPatch) (*models.User, error) {
	var updated *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByID(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %s", models.ErrNotFound, id)
			}
			return err
		}
		if err := applyUserPatch(user, patch, false); err != nil {
			return err
		}
		if err := s.userRepo.Update(tx, user); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email or username already taken", models.ErrValidation)
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *userService) DeleteByUsername(username string) error {
	user, err := s.GetByUsername(username)
	if err != nil {
		return err
	}
	// Reviews and comments authored by the user go with it (FK cascade).
	if err := s.userRepo.Delete(nil, user.ID); err != nil {
		return err
	}
	log.Printf("[INFO] DeleteByUsername: user %s (%s) deleted", user.ID, username)
	return nil
}

func applyUserPatch(user *models.User, patch UserPatch, allowRole bool) error {
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Role != nil {
		if !allowRole {
			return fmt.Errorf("%w: role cannot be changed on the self endpoint", models.ErrValidation)
		}
		if !patch.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q", models.ErrValidation, *patch.Role)
		}
		user.Role = *patch.Role
	}
	return nil
}
