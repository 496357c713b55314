// Package service implements the business rules of the platform on top of
// the repository layer.
package service

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"projectarium/internal/models"
	"projectarium/internal/repository"
)

// Notifier delivers best-effort events to a user. Implemented by
// notifications.Notifier.
type Notifier interface {
	Notify(ctx context.Context, userID uint, eventType string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, uint, string, any) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// requireAdmin returns FORBIDDEN unless userID resolves to an admin.
func requireAdmin(ctx context.Context, users repository.UserRepository, userID uint) (*models.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Unknown requester")
		}
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, models.NewForbiddenError("Admin privileges required")
	}
	return user, nil
}

// lockUsers resolves ids inside tx and holds a row lock on each until the
// transaction ends, so a concurrent deletion of any of them waits for tx or
// makes tx fail with NOT_FOUND. Rows are locked in ascending id order; the
// ids listed in exclusive get FOR UPDATE, the rest FOR SHARE. Transactions
// lock users before projects and projects before comments.
func lockUsers(ctx context.Context, tx *repository.Store, ids []uint, exclusive ...uint) (map[uint]*models.User, error) {
	order := slices.Clone(ids)
	slices.Sort(order)
	order = slices.Compact(order)
	users := make(map[uint]*models.User, len(order))
	for _, id := range order {
		strength := repository.LockShare
		if slices.Contains(exclusive, id) {
			strength = repository.LockUpdate
		}
		user, err := tx.Users.Lock(ctx, id, strength)
		if err != nil {
			return nil, err
		}
		users[id] = user
	}
	return users, nil
}

// requiredText trims value and checks it is non-empty and at most max runes.
func requiredText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", models.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(value) > max {
		return "", models.NewValidationError(field + " is too long")
	}
	return value, nil
}

// outcome labels a failed mutation for metrics.
func outcome(err error) string {
	if code := models.ErrorCode(err); code != "" {
		return code
	}
	return "error"
}
