package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookreview/internal/auth"
	"bookreview/internal/models"
	"bookreview/internal/notify"
	"bookreview/internal/repositories"
)

// Confirmation codes are 8-digit numbers, matching what registered users
// receive by email.
const (
	confirmationCodeMin = 10000000
	confirmationCodeMax = 99999999
)

// AuthService implements registration by email and the code-for-token exchange.
type AuthService interface {
	// RequestConfirmationCode creates or fetches the user for this email,
	// stores a fresh confirmation code on it and dispatches the code through
	// the notification sink. The code is returned for the caller's benefit in
	// tests and logs; clients receive it out of band.
	RequestConfirmationCode(ctx context.Context, email string) (int, error)

	// ExchangeCodeForToken validates the stored code and mints a token pair
	// bound to the user's identity and role.
	ExchangeCodeForToken(ctx context.Context, email string, code int) (auth.TokenPair, error)

	// RefreshToken mints a new access token from a valid refresh token. The
	// confirmation code is not re-presented.
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

type authService struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
	issuer   *auth.Issuer
	sink     notify.Sink
}

func NewAuthService(db *gorm.DB, userRepo repositories.UserRepository, issuer *auth.Issuer, sink notify.Sink) AuthService {
	return &authService{db: db, userRepo: userRepo, issuer: issuer, sink: sink}
}

func (s *authService) RequestConfirmationCode(ctx context.Context, email string) (int, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return 0, fmt.Errorf("%w: malformed email %q", models.ErrValidation, email)
	}

	code := generateConfirmationCode()

	var user *models.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.userRepo.GetByEmail(tx, email)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			created, err := s.createUserForEmail(tx, email)
			if err != nil {
				log.Printf("[ERROR] RequestConfirmationCode: failed to create user for %s: %v", email, err)
				return err
			}
			existing = created
		}
		user = existing
		return s.userRepo.UpdateConfirmationCode(tx, user.ID, code)
	})
	if err != nil {
		return 0, err
	}

	// Delivery is best-effort. A sink failure must not undo the issued code.
	if err := s.sink.Send(ctx, email, code); err != nil {
		log.Printf("[WARN] RequestConfirmationCode: sink send failed for %s: %v", email, err)
	}

	log.Printf("[INFO] RequestConfirmationCode: code issued for user %s", user.ID)
	return code, nil
}

func (s *authService) ExchangeCodeForToken(_ context.Context, email string, code int) (auth.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, fmt.Errorf("%w: no user with email %q", models.ErrNotFound, email)
		}
		return auth.TokenPair{}, err
	}

	if user.ConfirmationCode == nil || *user.ConfirmationCode != code {
		log.Printf("[WARN] ExchangeCodeForToken: wrong code for user %s", user.ID)
		return auth.TokenPair{}, models.ErrWrongConfirmationCode
	}

	// Known weakness: the code stays valid after a successful exchange. It is
	// only replaced by the next RequestConfirmationCode call.
	pair, err := s.issuer.Mint(user.ID, user.Role)
	if err != nil {
		return auth.TokenPair{}, err
	}
	log.Printf("[INFO] ExchangeCodeForToken: token pair minted for user %s", user.ID)
	return pair, nil
}

func (s *authService) RefreshToken(_ context.Context, refreshToken string) (string, error) {
	userID, err := s.issuer.Subject(refreshToken)
	if err != nil {
		return "", err
	}
	user, err := s.userRepo.GetByID(nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: user no longer exists", models.ErrAuthenticationFailed)
		}
		return "", err
	}
	return s.issuer.Refresh(refreshToken, user.Role)
}

// createUserForEmail registers a new user with the default role. The username
// defaults to the email's local part, with a uuid-derived suffix on collision.
func (s *authService) createUserForEmail(tx *gorm.DB, email string) (*models.User, error) {
	username := email[:strings.Index(email, "@")]
	if len(username) > 25 {
		username = username[:25]
	}
	if _, err := s.userRepo.GetByUsername(tx, username); err == nil {
		suffix := uuidSuffix()
		if len(username) > 25-len(suffix) {
			username = username[:25-len(suffix)]
		}
		username += suffix
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Username: username,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(tx, user); err != nil {
		return nil, err
	}
	log.Printf("[INFO] RequestConfirmationCode: registered user %s (%s)", user.ID, username)
	return user, nil
}

func uuidSuffix() string {
	return "-" + uuid.NewString()[:8]
}

// generateConfirmationCode draws an 8-digit code from a source reseeded per
// call.
func generateConfirmationCode() int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return rng.Intn(confirmationCodeMax-confirmationCodeMin+1) + confirmationCodeMin
}
