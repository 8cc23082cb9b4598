package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/ds124wfegd/linkhub/internal/database/postgres"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9_.-]+`)

// users resolves the caller from the X-User-Email identity, creating the
// account on first use.
type users struct {
	repo postgres.UserRepository
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u users) resolve(ctx context.Context, email string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, entity.ErrUnauthorized
	}

	user, err := u.repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, entity.ErrUserNotFound) {
		return nil, err
	}

	local := email[:strings.IndexByte(email, '@')]
	base := usernameUnsafe.ReplaceAllString(local, "")
	if base == "" {
		base = "user"
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		user = &entity.User{
			ID:       uuid.NewString(),
			Email:    email,
			Name:     local,
			Username: fmt.Sprintf("%s%d", base, rand.IntN(1000)),
		}
		if lastErr = u.repo.Create(ctx, user); lastErr == nil {
			logrus.WithField("username", user.Username).Info("user created")
			return user, nil
		}

		// a concurrent request may have created the same email
		if existing, err := u.repo.GetByEmail(ctx, email); err == nil {
			return existing, nil
		}
	}
	return nil, lastErr
}
