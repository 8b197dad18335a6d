package auth

import (
	"errors"
	"net/http"
	"strings"

	apperrors "masterbook/pkg/errors"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type Authenticator struct {
	verifier Verifier
	log      *logger.Logger
}

func NewAuthenticator(verifier Verifier, log *logger.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		log:      log,
	}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := a.authenticate(r)
		if err != nil {
			a.reject(w, r, err)
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), *id)), ps)
	}
}

// Optional lets anonymous requests through. A token that is present but
// invalid is still rejected.
func (a *Authenticator) Optional(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := a.authenticate(r)
		if errors.Is(err, ErrMissingToken) {
			next(w, r, ps)
			return
		}
		if err != nil {
			a.reject(w, r, err)
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), *id)), ps)
	}
}

func (a *Authenticator) authenticate(r *http.Request) (*Identity, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	return a.verifier.Verify(r.Context(), token)
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Warn("Authentication failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	message := "Invalid bearer token"
	if errors.Is(err, ErrMissingToken) {
		message = "Authentication required"
	}
	httputil.WriteError(w, apperrors.Unauthenticated(message))
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}
