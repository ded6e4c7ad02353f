// This file implements the users collection. Emails are stored lowercased
// and are unique; User.Binders is derived from binder_users.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

const selectUser = "SELECT user_id, name, email, hash, role, settings FROM users"

// InsertUser creates a user. A second user with the same normalized email
// fails with ErrUniquenessViolation and leaves the table unchanged.
func (t *Tx) InsertUser(ctx context.Context, u *types.User) error {
	if err := t.require(types.CollectionUsers); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}
	email := u.NormalizedEmail()
	dup, err := t.exists(ctx, "SELECT 1 FROM users WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if dup {
		return fmt.Errorf("%w: email %s already registered", types.ErrUniquenessViolation, email)
	}
	settings, err := marshalSettings(u.Settings)
	if err != nil {
		return err
	}
	if u.ID == "" {
		if u.ID, err = newID(); err != nil {
			return err
		}
	} else if taken, err := t.exists(ctx, "SELECT 1 FROM users WHERE user_id = ?", u.ID); err != nil {
		return fmt.Errorf("checking user id: %w", err)
	} else if taken {
		return fmt.Errorf("%w: user %s exists", types.ErrUniquenessViolation, u.ID)
	}

	if _, err := t.exec(ctx,
		"INSERT INTO users (user_id, name, email, hash, role, settings) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Name, email, u.Hash, u.Role, settings); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	u.Email = email
	t.touch(types.CollectionUsers, u.ID)
	return nil
}

// GetUser returns the user or nil if it does not exist.
func (t *Tx) GetUser(ctx context.Context, id string) (*types.User, error) {
	if id == "" {
		return nil, nil
	}
	return t.getUser(ctx, selectUser+" WHERE user_id = ?", id)
}

// UserByEmail looks a user up by email, case-insensitively.
func (t *Tx) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	u := types.User{Email: email}
	return t.getUser(ctx, selectUser+" WHERE email = ?", u.NormalizedEmail())
}

func (t *Tx) getUser(ctx context.Context, query string, arg string) (*types.User, error) {
	var u types.User
	var settings string
	found, err := t.queryRow(ctx, query, []any{arg},
		&u.ID, &u.Name, &u.Email, &u.Hash, &u.Role, &settings)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if !found {
		return nil, nil
	}
	if err := t.hydrateUser(ctx, &u, settings); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user ordered by ID.
func (t *Tx) ListUsers(ctx context.Context) ([]*types.User, error) {
	rows, err := t.query(ctx, selectUser+" ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := []*types.User{}
	var raw []string
	for rows.Next() {
		var u types.User
		var settings string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Hash, &u.Role, &settings); err != nil {
			rows.Close()
			return nil, storageError("scanning user", err)
		}
		users = append(users, &u)
		raw = append(raw, settings)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating users", err)
	}

	for i, u := range users {
		if err := t.hydrateUser(ctx, u, raw[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (t *Tx) hydrateUser(ctx context.Context, u *types.User, settings string) error {
	if err := json.Unmarshal([]byte(settings), &u.Settings); err != nil {
		return storageError("decoding user settings", err)
	}
	if u.Settings == nil {
		u.Settings = map[string]any{}
	}
	var err error
	u.Binders, err = t.BinderIDsForUser(ctx, u.ID)
	return err
}

// UpdateUser replaces name, email, hash, role and settings. Changing the
// email to one held by another user fails with ErrUniquenessViolation.
func (t *Tx) UpdateUser(ctx context.Context, u *types.User) error {
	if err := t.require(types.CollectionUsers); err != nil {
		return err
	}
	if u.ID == "" {
		return types.ErrInvalidID
	}
	if err := u.Validate(); err != nil {
		return err
	}
	email := u.NormalizedEmail()
	dup, err := t.exists(ctx, "SELECT 1 FROM users WHERE email = ? AND user_id <> ?", email, u.ID)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if dup {
		return fmt.Errorf("%w: email %s already registered", types.ErrUniquenessViolation, email)
	}
	settings, err := marshalSettings(u.Settings)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx,
		"UPDATE users SET name = ?, email = ?, hash = ?, role = ?, settings = ? WHERE user_id = ?",
		u.Name, email, u.Hash, u.Role, settings, u.ID)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", types.ErrNotFound, u.ID)
	}
	u.Email = email
	t.touch(types.CollectionUsers, u.ID)
	return nil
}

// DeleteUserRow removes the user row. Edges must already be gone.
func (t *Tx) DeleteUserRow(ctx context.Context, id string) (bool, error) {
	if err := t.require(types.CollectionUsers); err != nil {
		return false, err
	}
	res, err := t.exec(ctx, "DELETE FROM users WHERE user_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting user %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.touch(types.CollectionUsers, id)
	}
	return n > 0, nil
}

func marshalSettings(settings map[string]any) (string, error) {
	if settings == nil {
		return "{}", nil
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("%w: user settings: %v", types.ErrValidation, err)
	}
	return string(data), nil
}
