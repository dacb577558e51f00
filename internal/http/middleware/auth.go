package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
)

// BearerAuth rejects requests without a valid HS256 bearer token signed with
// secret. Claims are not inspected beyond expiry.
func BearerAuth(secret []byte, log *zap.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	keyFunc := func(*jwt.Token) (any, error) {
		return secret, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				render.Error(w, log, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "bearer token required"})
				return
			}

			if _, err := parser.Parse(raw, keyFunc); err != nil {
				log.Debug("rejected bearer token", zap.Error(err))
				render.Error(w, log, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "invalid or expired token"})

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}

	return strings.TrimSpace(token), true
}

// SignToken issues an HS256 token for subject. It backs local tooling and tests.
func SignToken(secret []byte, subject string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}
