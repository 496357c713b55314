package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"projectarium/internal/cache"
	"projectarium/internal/featureflags"
	"projectarium/internal/middleware"
	"projectarium/internal/models"
	"projectarium/internal/observability"
	"projectarium/internal/repository"
	"projectarium/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	// UsernameChangeCost is debited when a user renames themselves.
	UsernameChangeCost = 100
	maxDisplayName     = 50
	maxDescription     = 500
)

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

// UserService covers accounts, profile edits and credits.
type UserService struct {
	store *repository.Store
	graph *GraphService
	flags *featureflags.Manager
	bot   *WelcomeBot
}

func NewUserService(store *repository.Store, graph *GraphService, flags *featureflags.Manager, bot *WelcomeBot) *UserService {
	return &UserService{store: store, graph: graph, flags: flags, bot: bot}
}

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Username    string
	Password    string
	DisplayName string
}

// Signup creates a user. A taken username is a soft error.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	displayName := strings.TrimSpace(in.DisplayName)
	if username == "" || in.Password == "" || displayName == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if utf8.RuneCountInString(displayName) > maxDisplayName {
		return nil, models.NewValidationError("Display name is too long")
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:      username,
		DisplayName:   displayName,
		Password:      hash,
		Description:   models.DefaultDescription,
		ProfileColour: rand.IntN(7) + 1,
		Role:          models.RoleUser,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.bot != nil && s.flags.Enabled(featureflags.WelcomeBot, user.ID) {
		if err := s.bot.Welcome(ctx, user.ID); err != nil {
			middleware.Logger.WarnContext(ctx, "welcome bot failed",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return user, nil
}

// Login checks the credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid username or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// A wrong current password is a soft error.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		// The transaction store skips the cache, which never holds the hash.
		user, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
			return models.NewConflictError("Invalid password")
		}
		hash, err := hashPassword(next)
		if err != nil {
			return err
		}
		return tx.Users.UpdateFields(ctx, userID, map[string]interface{}{"password": hash})
	})
}

func (s *UserService) EditDisplayName(ctx context.Context, userID uint, value string) (*models.User, error) {
	value, err := requiredText("Display name", value, maxDisplayName)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.UpdateFields(ctx, userID, map[string]interface{}{"display_name": value}); err != nil {
		return nil, err
	}
	return s.store.Users.GetByID(ctx, userID)
}

// EditDescription sets the description; an empty value restores the default.
func (s *UserService) EditDescription(ctx context.Context, userID uint, value string) (*models.User, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = models.DefaultDescription
	}
	if utf8.RuneCountInString(value) > maxDescription {
		return nil, models.NewValidationError("Description is too long")
	}
	if err := s.store.Users.UpdateFields(ctx, userID, map[string]interface{}{"description": value}); err != nil {
		return nil, err
	}
	return s.store.Users.GetByID(ctx, userID)
}

// EditUsername renames the user for UsernameChangeCost credits. The debit
// and the rename commit together.
func (s *UserService) EditUsername(ctx context.Context, userID uint, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if current.Username == username {
			return models.NewValidationError("New username must differ from the current one")
		}
		if existing, err := tx.Users.GetByUsername(ctx, username); err == nil && existing.ID != userID {
			return models.NewConflictError("Username is already taken").WithExtra("usernameAlreadyExists", true)
		} else if err != nil && !models.IsNotFound(err) {
			return err
		}
		ok, err := tx.Users.DebitCredits(ctx, userID, UsernameChangeCost)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewConflictError("Not enough credits")
		}
		if err := tx.Users.UpdateUsername(ctx, userID, username); err != nil {
			return err
		}
		user, err = tx.Users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, userID)
	return user, nil
}

// AddCredits tops up targetID. Users may top up themselves; admins anyone.
func (s *UserService) AddCredits(ctx context.Context, actorID, targetID uint, amount int) (*models.User, error) {
	if amount <= 0 {
		return nil, models.NewValidationError("Amount must be positive")
	}
	source := "self"
	if actorID != targetID {
		if _, err := requireAdmin(ctx, s.store.Users, actorID); err != nil {
			return nil, err
		}
		source = "admin"
	}
	if err := s.store.Users.AddCredits(ctx, targetID, amount); err != nil {
		return nil, err
	}
	observability.CreditsGranted.WithLabelValues(source).Add(float64(amount))
	return s.store.Users.GetByID(ctx, targetID)
}

// GetByUsername returns the public profile with every relationship set.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.graph.Hydrate(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetDetails returns the user row without relationship sets.
func (s *UserService) GetDetails(ctx context.Context, userID uint) (*models.User, error) {
	return s.store.Users.GetByID(ctx, userID)
}

// SetRole changes a user's role. Used by the admin CLI.
func (s *UserService) SetRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, models.NewValidationError("Unknown role " + string(role))
	}
	user, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.UpdateFields(ctx, user.ID, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.NewValidationError("Password is too long")
		}
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}
