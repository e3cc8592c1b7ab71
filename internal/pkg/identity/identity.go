package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/yuleihq/branchsite/internal/pkg/env"
)

// ErrUnauthorized is returned for any token that does not verify.
var ErrUnauthorized = errors.New("unauthorized")

// Resolver verifies an opaque auth token and yields the subject id behind
// it. Token internals are never inspected by the control plane.
type Resolver interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticResolver verifies against a fixed token->subject table. It serves
// deployments without an external identity provider and the test suite.
type StaticResolver struct {
	subjects map[string]string
}

// NewStaticResolver creates a resolver over a fixed token table.
func NewStaticResolver(subjects map[string]string) *StaticResolver {
	if subjects == nil {
		subjects = map[string]string{}
	}
	return &StaticResolver{subjects: subjects}
}

// NewStaticResolverFromEnv reads ADMIN_TOKEN / ADMIN_SUBJECT from the
// environment as a single-entry token table.
func NewStaticResolverFromEnv() *StaticResolver {
	subjects := map[string]string{}
	if token := env.GetEnv("ADMIN_TOKEN", ""); token != "" {
		subjects[token] = env.GetEnv("ADMIN_SUBJECT", "admin")
	}
	return NewStaticResolver(subjects)
}

// Verify resolves the token to its subject id or fails with ErrUnauthorized.
func (r *StaticResolver) Verify(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthorized
	}
	for known, subject := range r.subjects {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			return subject, nil
		}
	}
	return "", ErrUnauthorized
}
