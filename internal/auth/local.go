// internal/auth/local.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/model"
	"github.com/parleyhq/parley/internal/repository"
)

// LocalProvider is the built-in Provider implementation: accounts live in
// the identities table, passwords are argon2id hashes, and the session
// credential is an HS256 JWT. A hosted provider can be dropped in anywhere
// a Provider is accepted.
type LocalProvider struct {
	identities repository.IdentityRepositoryIface
	hasher     *PasswordHasher
	tokens     *TokenManager
}

func NewLocalProvider(identities repository.IdentityRepositoryIface, hasher *PasswordHasher, tokens *TokenManager) *LocalProvider {
	return &LocalProvider{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
	}
}

func (p *LocalProvider) ValidateSession(ctx context.Context, credential string) (uuid.UUID, error) {
	claims, err := p.tokens.Validate(credential)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	return id, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	identity, err := p.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("finding identity: %w", err)
	}

	verified, err := p.hasher.Verify(password, identity.PasswordHash)
	if err != nil || !verified {
		return "", domain.ErrInvalidCredentials
	}

	token, err := p.tokens.Generate(identity.ID.String(), identity.Email)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return token, nil
}

func (p *LocalProvider) CreateIdentity(ctx context.Context, email, password string) (uuid.UUID, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hashing password: %w", err)
	}

	identity := &model.Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := p.identities.Create(ctx, identity); err != nil {
		return uuid.Nil, fmt.Errorf("creating identity: %w", err)
	}
	return identity.ID, nil
}

func (p *LocalProvider) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	if err := p.identities.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}
	return nil
}

func (p *LocalProvider) FindByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	identity, err := p.identities.FindByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, err
	}
	return identity.ID, nil
}
