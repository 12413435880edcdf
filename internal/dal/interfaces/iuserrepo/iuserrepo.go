package iuserrepo

import (
	"context"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
)

// IUserRepository is an interface for user lookups.
type IUserRepository interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	// GetByEmails skips emails without a user.
	GetByEmails(ctx context.Context, emails []string) (map[string]user.User, error)
	Count(ctx context.Context) (int64, error)
}
