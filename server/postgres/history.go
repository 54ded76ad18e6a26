package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
	"github.com/AntonStoeckl/booklending/server/postgres/internal/adapters"
)

// BookHistory returns the book with its action log in append order.
// A missing book yields an empty history and no error, the decide functions report it.
func (s *Store) BookHistory(ctx context.Context, bookID int64) (core.BookHistory, error) {
	bookSQL, bookArgs, err := builder().
		From(tableBooks).
		Select(append(bookColumns(), goqu.C(colMaxActionID))...).
		Where(goqu.C(colID).Eq(bookID)).
		ToSQL()
	if err != nil {
		return core.BookHistory{}, s.buildFailed(ctx, "book_history", err)
	}

	var history core.BookHistory

	found := false
	if err = s.query(ctx, "book_history", bookSQL, bookArgs, func(rows adapters.DBRows) error {
		record, scanErr := scanBook(rows, &history.MaxActionID)
		if scanErr != nil {
			return scanErr
		}
		history.Book = record
		found = true
		return nil
	}); err != nil {
		return core.BookHistory{}, err
	}

	if !found {
		return core.BookHistory{}, nil
	}

	entriesSQL, entriesArgs, err := builder().
		From(goqu.T(tableActions).As("a")).
		LeftJoin(goqu.T(tableUsers).As("u"), goqu.On(goqu.I("u."+colID).Eq(goqu.I("a."+colUserID)))).
		Select(
			goqu.I("a."+colID),
			goqu.I("a."+colBookID),
			goqu.I("a."+colUserID),
			goqu.COALESCE(goqu.I("u."+colUsername), ""),
			goqu.I("a."+colAction),
			goqu.I("a."+colActionDate),
			goqu.I("a."+colDueDate),
		).
		Where(goqu.I("a." + colBookID).Eq(bookID)).
		Order(goqu.I("a." + colID).Asc()).
		ToSQL()
	if err != nil {
		return core.BookHistory{}, s.buildFailed(ctx, "book_history_entries", err)
	}

	if err = s.query(ctx, "book_history_entries", entriesSQL, entriesArgs, func(rows adapters.DBRows) error {
		var (
			entry      core.ActionEntry
			actionType string
			dueDate    *time.Time
		)

		if scanErr := rows.Scan(
			&entry.ID,
			&entry.BookID,
			&entry.UserID,
			&entry.Username,
			&actionType,
			&entry.ActionDate,
			&dueDate,
		); scanErr != nil {
			return errors.Join(ErrScanningRowFailed, scanErr)
		}

		entry.Type = core.ActionType(actionType)
		entry.DueDate = dueDate
		history.Entries = append(history.Entries, entry)
		return nil
	}); err != nil {
		return core.BookHistory{}, err
	}

	return history, nil
}

// AppendAction sets the book's new status and appends the decision's entry in one statement.
// Nothing is written unless the book's latest action id still equals history.MaxActionID;
// in that case core.ErrConcurrencyConflict is returned.
func (s *Store) AppendAction(ctx context.Context, history core.BookHistory, decision core.DecisionResult) (catalog.Record, error) {
	if !decision.HasEntryToAppend() {
		return history.Book, nil
	}

	entry := *decision.Entry
	b := builder()

	nextStmt := b.Select(goqu.L("nextval(?)", actionsIDSequence).As(aliasActionID))

	updateStmt := b.Update(tableBooks).
		Set(goqu.Record{
			colStatus:      decision.NewStatus.String(),
			colMaxActionID: goqu.L("(SELECT ? FROM ?)", goqu.C(aliasActionID), goqu.T(cteNext)),
		}).
		Where(
			goqu.C(colID).Eq(history.Book.ID),
			goqu.C(colMaxActionID).Eq(history.MaxActionID),
		).
		Returning(append(bookColumns(), goqu.C(colMaxActionID))...)

	sqlQuery, args, err := b.From(cteChanged).
		With(cteNext, nextStmt).
		With(cteChanged, updateStmt).
		With(cteLogged, logActionStatement(entry)).
		Select(bookColumns()...).
		ToSQL()
	if err != nil {
		return catalog.Record{}, s.buildFailed(ctx, "append_action", err)
	}

	record, found, err := s.queryBook(ctx, "append_action", sqlQuery, args)
	if err != nil {
		return catalog.Record{}, err
	}

	if !found {
		s.logInfo(ctx, logMsgConcurrency,
			logAttrOperation, "append_action",
			logAttrBookID, history.Book.ID,
			logAttrExpectedMax, history.MaxActionID,
			logAttrActionType, string(entry.Type),
		)
		return catalog.Record{}, core.ErrConcurrencyConflict
	}

	return record, nil
}
