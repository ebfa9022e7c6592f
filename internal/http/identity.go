package http

import (
	"net/http"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
)

// identityHandlerFunc receives the resolved caller, nil for anonymous requests.
type identityHandlerFunc func(w http.ResponseWriter, r *http.Request, caller *model.User)

// withIdentity resolves the caller before running h. A request carrying an
// invalid token is rejected even on public routes.
func (s *Service) withIdentity(h identityHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.authenticator.Authenticate(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		h(w, r, caller)
	}
}

func (s *Service) requireAuth(h identityHandlerFunc) identityHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, caller *model.User) {
		if caller == nil {
			s.writeError(w, r, apperr.NotAuthenticatedErr)
			return
		}
		h(w, r, caller)
	}
}

func (s *Service) requireStaff(h identityHandlerFunc) identityHandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, caller *model.User) {
		if !caller.IsStaff {
			s.writeError(w, r, apperr.PermissionDeniedErr)
			return
		}
		h(w, r, caller)
	})
}
