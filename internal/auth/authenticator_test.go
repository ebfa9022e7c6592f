package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
)

type userGetterFunc func(ctx context.Context, id uuid.UUID) (model.User, error)

func (f userGetterFunc) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return f(ctx, id)
}

func TestAuthenticator(t *testing.T) {
	ti := newTestIssuer(time.Now())

	active := model.User{ID: uuid.Must(uuid.NewV7()), Email: "staff@example.com", IsActive: true}
	inactive := model.User{ID: uuid.Must(uuid.NewV7()), Email: "gone@example.com"}
	other := model.User{ID: uuid.Must(uuid.NewV7()), Email: "other@example.com", IsActive: true}

	users := userGetterFunc(func(_ context.Context, id uuid.UUID) (model.User, error) {
		for _, u := range []model.User{active, inactive, other} {
			if u.ID == id {
				return u, nil
			}
		}
		return model.User{}, repository.ErrNotFound
	})

	a := NewAuthenticator(ti, users, CookieExtractor("jwt_access"), BearerExtractor())

	issue := func(t *testing.T, id uuid.UUID) string {
		t.Helper()
		token, err := ti.IssueAccess(id)
		require.NoError(t, err)
		return token
	}

	t.Run("Should return nil identity without token", func(t *testing.T) {
		user, err := a.Authenticate(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("Should treat empty cookie as absent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(&http.Cookie{Name: "jwt_access", Value: ""})

		user, err := a.Authenticate(r)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("Should resolve identity from cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(&http.Cookie{Name: "jwt_access", Value: issue(t, active.ID)})

		user, err := a.Authenticate(r)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, active.ID, user.ID)
	})

	t.Run("Should fall back to bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.Header.Set("Authorization", "Bearer "+issue(t, active.ID))

		user, err := a.Authenticate(r)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, active.ID, user.ID)
	})

	t.Run("Should prefer cookie over bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(&http.Cookie{Name: "jwt_access", Value: issue(t, active.ID)})
		r.Header.Set("Authorization", "Bearer "+issue(t, other.ID))

		user, err := a.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, active.ID, user.ID)
	})

	t.Run("Should ignore other authorization schemes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		user, err := a.Authenticate(r)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	for name, header := range map[string]string{
		"without token":   "Bearer",
		"with extra part": "Bearer a b",
	} {
		t.Run("Should reject bearer header "+name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			r.Header.Set("Authorization", header)

			_, err := a.Authenticate(r)
			assert.ErrorIs(t, err, apperr.AuthHeaderInvalidErr)
		})
	}

	t.Run("Should reject invalid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(&http.Cookie{Name: "jwt_access", Value: "garbage"})

		_, err := a.Authenticate(r)
		assert.ErrorIs(t, err, apperr.TokenNotValidErr)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject unknown user", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(&http.Cookie{Name: "jwt_access", Value: issue(t, uuid.Must(uuid.NewV7()))})

		_, err := a.Authenticate(r)
		assert.ErrorIs(t, err, apperr.UserNotFoundErr)
	})

	t.Run("Should reject inactive user", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(&http.Cookie{Name: "jwt_access", Value: issue(t, inactive.ID)})

		_, err := a.Authenticate(r)
		assert.ErrorIs(t, err, apperr.UserInactiveErr)
	})
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("tag-reader-42")
	require.NoError(t, err)
	assert.NotEqual(t, "tag-reader-42", hash)

	ok, err := h.Compare(hash, "tag-reader-42")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Compare("not-a-hash", "tag-reader-42")
	assert.Error(t, err)
}
