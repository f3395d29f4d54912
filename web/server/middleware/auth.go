package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.hackfix.me/waypoint/crypto"
	"go.hackfix.me/waypoint/db/models"
	dbtypes "go.hackfix.me/waypoint/db/types"
	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// Auth is the result of a successful authorization.
type Auth struct {
	Token *models.Token
}

// Authorize returns a Check that authenticates the bearer token in the
// Authorization header, and verifies that its role allows performing action
// on target. It rejects the request with 401 Unauthorized if the token is
// missing or unknown, and with 403 Forbidden if the role doesn't allow the
// action.
func Authorize(d dbtypes.Querier, action, target string) Check[Auth] {
	return func(req *types.Request) xtask.Task[Auth] {
		return func(ctx context.Context) (Auth, error) {
			secret, err := parseAuthHeader(req.Header("authorization"))
			if err != nil {
				return Auth{}, reject(types.Unauthorized, err.Error())
			}

			hash, err := crypto.HashToken(secret)
			if err != nil {
				return Auth{}, reject(types.Unauthorized, "invalid token")
			}

			tok := &models.Token{Hash: hash}
			if err = tok.Load(ctx, d); err != nil {
				var errNoRes dbtypes.NoResultError
				if errors.As(err, &errNoRes) {
					return Auth{}, reject(types.Unauthorized, "invalid token")
				}
				return Auth{}, fmt.Errorf("failed loading token: %w", err)
			}

			ok, err := tok.Role.Can(action, target)
			if err != nil {
				return Auth{}, fmt.Errorf("failed checking token permissions: %w", err)
			}
			if !ok {
				return Auth{}, reject(types.Forbidden,
					fmt.Sprintf("token '%s' is not allowed to %s %s", tok.Name, action, target))
			}

			return Auth{Token: tok}, nil
		}
	}
}

func parseAuthHeader(header string) (token string, err error) {
	if header == "" {
		return "", errors.New("empty Authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errors.New("invalid Authorization header scheme")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("empty bearer token")
	}

	return token, nil
}

// reject fails a check with a JSON error response built by respond.
func reject(respond func(map[string]string, []byte) *types.Response, msg string) error {
	resp, err := types.JSON(respond, types.Error{Message: msg})
	if err != nil {
		return err
	}

	return types.Reject(resp)
}
