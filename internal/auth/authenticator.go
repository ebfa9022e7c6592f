package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
)

type UserGetter interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

type Authenticator struct {
	extractors []Extractor
	tokens     *TokenIssuer
	users      UserGetter
}

// NewAuthenticator tries extractors in order; the first one yielding a token wins.
func NewAuthenticator(tokens *TokenIssuer, users UserGetter, extractors ...Extractor) *Authenticator {
	return &Authenticator{
		extractors: extractors,
		tokens:     tokens,
		users:      users,
	}
}

// Authenticate resolves the identity behind the request. It returns nil and no
// error when the request carries no token at all.
func (a *Authenticator) Authenticate(r *http.Request) (*model.User, error) {
	token, err := a.extract(r)
	if err != nil {
		return nil, apperr.AuthHeaderInvalidErr.WrapParent(err)
	}
	if token == "" {
		return nil, nil
	}

	userID, err := a.tokens.ValidateAccess(token)
	if err != nil {
		return nil, apperr.TokenNotValidErr.WrapParent(err)
	}

	return LoadActiveUser(r.Context(), a.users, userID)
}

func (a *Authenticator) extract(r *http.Request) (string, error) {
	for _, e := range a.extractors {
		token, err := e.Extract(r)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}
	return "", nil
}

// LoadActiveUser fetches the identity a token refers to and rejects missing or inactive ones.
func LoadActiveUser(ctx context.Context, users UserGetter, userID uuid.UUID) (*model.User, error) {
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.UserNotFoundErr
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, apperr.UserInactiveErr
	}
	return &user, nil
}
