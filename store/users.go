package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/uptrace/bun"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// CreateUser inserts a new user with the given name, password hash and
// salt, returning its id. It returns apperr.UserCreation if the name is
// already taken.
func (g *Gateway) CreateUser(ctx context.Context, name string, passwordHash, salt []byte, role job.Role) (int64, error) {
	um := &userModel{
		Name:         name,
		PasswordHash: passwordHash,
		Salt:         salt,
		Role:         role,
	}
	if _, err := g.db.NewInsert().Model(um).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.New(apperr.UserCreation, "user name already taken")
		}
		return 0, apperr.Wrap(apperr.DBError, "create user", err)
	}
	return um.UserID, nil
}

// GetUser looks up a user by name, used on the AUTH path to fetch the
// password hash and salt to verify against.
func (g *Gateway) GetUser(ctx context.Context, name string) (*job.User, error) {
	var um userModel
	err := g.db.NewSelect().Model(&um).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.Auth, "unknown user")
		}
		return nil, apperr.Wrap(apperr.DBError, "get user", err)
	}
	return um.toUser(), nil
}

// ResolveUser looks up a user by id, used by the Management Server's
// admin-facing commands.
func (g *Gateway) ResolveUser(ctx context.Context, userID int64) (*job.User, error) {
	var um userModel
	err := g.db.NewSelect().Model(&um).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, apperr.Wrap(apperr.DBError, "resolve user", err)
	}
	return um.toUser(), nil
}

// SetUserBlocked sets the blocked flag for userID.
func (g *Gateway) SetUserBlocked(ctx context.Context, userID int64, blocked bool) error {
	res, err := g.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("blocked = ?", blocked).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "set user blocked", err)
	}
	if !isAffected(res) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

// ChangeUserRole updates the role of userID.
func (g *Gateway) ChangeUserRole(ctx context.Context, userID int64, role job.Role) error {
	res, err := g.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("role = ?", role).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "change user role", err)
	}
	if !isAffected(res) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

// ChangeUserAuth replaces the password hash and salt of userID, used after
// a password change is re-hashed by the auth package.
func (g *Gateway) ChangeUserAuth(ctx context.Context, userID int64, passwordHash, salt []byte) error {
	res, err := g.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("pw_hash = ?", passwordHash).
		Set("salt = ?", salt).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "change user auth", err)
	}
	if !isAffected(res) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

// DeleteUser removes userID and cascades the delete to every job it owns
// and those jobs' data rows, all inside one transaction. Callers are
// expected to have already aborted the user's waiting jobs
// (Gateway.AbortWaitingForUser) and asked the Scheduler to cancel any
// running ones. DeleteUser itself does not touch the Scheduler, it only
// removes rows.
func (g *Gateway) DeleteUser(ctx context.Context, userID int64) error {
	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*dataModel)(nil)).
			Where("job_id IN (SELECT job_id FROM jobs WHERE user_id = ?)", userID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*jobModel)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*userModel)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if !isAffected(res) {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apperr.Wrap(apperr.DBError, "delete user", err)
	}
	return nil
}

// ListUsers returns every user, ordered by id, for the Management Server's
// "user list" command.
func (g *Gateway) ListUsers(ctx context.Context) ([]*job.User, error) {
	var models []*userModel
	if err := g.db.NewSelect().Model(&models).Order("user_id ASC").Scan(ctx); err != nil {
		return nil, apperr.Wrap(apperr.DBError, "list users", err)
	}
	ret := make([]*job.User, len(models))
	for i, m := range models {
		ret[i] = m.toUser()
	}
	return ret, nil
}

// ResolveUserByNameOrID looks up a user by id when s parses as a decimal
// integer, and by name otherwise. An unknown id yields apperr.NotFound; an
// unknown name yields apperr.Auth, as GetUser reports it.
func (g *Gateway) ResolveUserByNameOrID(ctx context.Context, s string) (*job.User, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return g.ResolveUser(ctx, id)
	}
	return g.GetUser(ctx, s)
}
