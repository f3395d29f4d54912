package models

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zpatrick/rbac"

	"go.hackfix.me/waypoint/crypto"
	"go.hackfix.me/waypoint/db/types"
)

// Role is the permission level granted to an API token.
type Role string

// Valid roles.
const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

// Actions checked against a role.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

var roles = map[Role]rbac.Role{
	RoleReader: {
		RoleID:      string(RoleReader),
		Permissions: []rbac.Permission{rbac.NewGlobPermission(ActionRead, "*")},
	},
	RoleWriter: {
		RoleID: string(RoleWriter),
		Permissions: []rbac.Permission{
			rbac.NewGlobPermission(ActionRead, "*"),
			rbac.NewGlobPermission(ActionWrite, "*"),
		},
	},
	RoleAdmin: {
		RoleID:      string(RoleAdmin),
		Permissions: []rbac.Permission{rbac.NewGlobPermission("*", "*")},
	},
}

// Roles returns all valid role names, sorted.
func Roles() []string {
	names := make([]string, 0, len(roles))
	for r := range roles {
		names = append(names, string(r))
	}
	slices.Sort(names)

	return names
}

// ParseRole returns the Role with the given name.
func ParseRole(name string) (Role, error) {
	if _, ok := roles[Role(name)]; !ok {
		return "", types.InvalidInputError{Msg: fmt.Sprintf("invalid role '%s'", name)}
	}
	return Role(name), nil
}

// Can reports whether the role allows performing action on target.
func (r Role) Can(action, target string) (bool, error) {
	role, ok := roles[r]
	if !ok {
		return false, fmt.Errorf("unknown role '%s'", r)
	}

	return role.Can(action, target)
}

// Token is an API token that grants access to the HTTP API. Only the hash of
// the token secret is stored.
type Token struct {
	ID        uint64
	CreatedAt time.Time
	Name      string
	Role      Role
	Hash      []byte
}

// NewToken creates a token with a new random secret. The returned secret is
// the only way of authenticating as this token, and it's not stored.
func NewToken(name string, role Role) (*Token, string, error) {
	if name == "" {
		return nil, "", types.InvalidInputError{Msg: "token name must not be empty"}
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, "", err
	}

	secret, hash, err := crypto.NewToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed generating token: %w", err)
	}

	return &Token{Name: name, Role: role, Hash: hash}, secret, nil
}

// Save stores a new token in the database.
func (t *Token) Save(ctx context.Context, d types.Querier) error {
	timeNow := d.TimeNow().UTC()
	res, err := d.ExecContext(ctx,
		`INSERT INTO tokens (id, created_at, name, role, hash)
		VALUES (NULL, ?, ?, ?, ?)`,
		timeNow, t.Name, string(t.Role), t.Hash)
	if err != nil {
		return types.Err("token", fmt.Sprintf("name '%s'", t.Name), err)
	}

	t.ID, err = lastInsertID(res)
	if err != nil {
		return err
	}
	t.CreatedAt = timeNow

	return nil
}

func (t *Token) createFilter() (*types.Filter, string, error) {
	switch {
	case t.ID != 0:
		return types.NewFilter("id = ?", []any{t.ID}), fmt.Sprintf("ID %d", t.ID), nil
	case t.Name != "":
		return types.NewFilter("name = ?", []any{t.Name}), fmt.Sprintf("name '%s'", t.Name), nil
	case len(t.Hash) > 0:
		return types.NewFilter("hash = ?", []any{t.Hash}), "the provided secret", nil
	default:
		return nil, "", types.InvalidInputError{Msg: "either token ID, Name or Hash must be set"}
	}
}

// Load the token data from the database. Either the token ID, Name or Hash
// must be set for the lookup.
func (t *Token) Load(ctx context.Context, d types.Querier) error {
	filter, filterStr, err := t.createFilter()
	if err != nil {
		return err
	}

	tokens, err := Tokens(ctx, d, filter)
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		return types.NoResultError{ModelName: "token", ID: filterStr}
	}
	*t = *tokens[0]

	return nil
}

// Delete removes the token from the database. Either the token ID, Name or
// Hash must be set for the lookup.
func (t *Token) Delete(ctx context.Context, d types.Querier) error {
	filter, filterStr, err := t.createFilter()
	if err != nil {
		return err
	}

	res, err := d.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM tokens WHERE %s`, filter.Where), filter.Args...)
	if err != nil {
		return types.Err("token", filterStr, err)
	}

	if ok, err := affectedOne(res); err != nil {
		return err
	} else if !ok {
		return types.NoResultError{ModelName: "token", ID: filterStr}
	}

	return nil
}

// Tokens returns tokens from the database, ordered by name. An optional filter
// can be passed to limit the results.
func Tokens(ctx context.Context, d types.Querier, filter *types.Filter) (tokens []*Token, rerr error) {
	where, args, limit := filter.Clause()

	query := fmt.Sprintf(`SELECT id, created_at, name, role, hash
		FROM tokens
		WHERE %s
		ORDER BY name ASC %s`, where, limit)

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "tokens", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil {
			rerr = errors.Join(rerr, fmt.Errorf("failed closing tokens rows: %w", err))
		}
	}()

	tokens = make([]*Token, 0)
	for rows.Next() {
		var (
			tok  Token
			role string
		)
		if err = rows.Scan(&tok.ID, &tok.CreatedAt, &tok.Name, &role, &tok.Hash); err != nil {
			return nil, types.ScanError{ModelName: "token", Err: err}
		}
		tok.Role = Role(role)
		tokens = append(tokens, &tok)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over tokens rows: %w", err)
	}

	return tokens, nil
}
