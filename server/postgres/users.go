package postgres

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
	"github.com/AntonStoeckl/booklending/server/postgres/internal/adapters"
)

func userColumns() []any {
	return []any{goqu.C(colID), goqu.C(colUsername), goqu.C(colPasswordHash), goqu.C(colRole)}
}

// FindUser returns the user with the given username or core.ErrUserNotFound.
func (s *Store) FindUser(ctx context.Context, username string) (core.User, error) {
	sqlQuery, args, err := builder().
		From(tableUsers).
		Select(userColumns()...).
		Where(goqu.C(colUsername).Eq(username)).
		Limit(1).
		ToSQL()
	if err != nil {
		return core.User{}, s.buildFailed(ctx, "find_user", err)
	}

	user, found, err := s.queryUser(ctx, "find_user", sqlQuery, args)
	if err != nil {
		return core.User{}, err
	}

	if !found {
		return core.User{}, core.ErrUserNotFound
	}

	return user, nil
}

// CreateUser stores a new account. A taken username yields core.ErrUserAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, role catalog.Role) (core.User, error) {
	sqlQuery, args, err := builder().
		Insert(tableUsers).
		Rows(goqu.Record{
			colUsername:     username,
			colPasswordHash: passwordHash,
			colRole:         string(role),
		}).
		Returning(userColumns()...).
		ToSQL()
	if err != nil {
		return core.User{}, s.buildFailed(ctx, "create_user", err)
	}

	user, found, err := s.queryUser(ctx, "create_user", sqlQuery, args)
	if err != nil {
		if isUniqueViolation(err) {
			s.logInfo(ctx, logMsgUniqueViolation, logAttrOperation, "create_user")
			return core.User{}, core.ErrUserAlreadyExists
		}
		return core.User{}, err
	}

	if !found {
		return core.User{}, errors.Join(ErrQueryingFailed, errors.New("insert returned no row"))
	}

	return user, nil
}

func (s *Store) queryUser(ctx context.Context, operation, sqlQuery string, args []any) (core.User, bool, error) {
	var (
		user  core.User
		found bool
	)

	err := s.query(ctx, operation, sqlQuery, args, func(rows adapters.DBRows) error {
		var role string
		if scanErr := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &role); scanErr != nil {
			return errors.Join(ErrScanningRowFailed, scanErr)
		}
		user.Role = catalog.ParseRole(role)
		found = true
		return nil
	})

	return user, found, err
}
