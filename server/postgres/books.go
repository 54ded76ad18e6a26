package postgres

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
	"github.com/AntonStoeckl/booklending/server/postgres/internal/adapters"
)

var sortColumns = map[catalog.SortField]string{
	catalog.SortByID:     colID,
	catalog.SortByTitle:  colTitle,
	catalog.SortByAuthor: colAuthor,
	catalog.SortByISBN:   colISBN,
	catalog.SortByStatus: colStatus,
}

// ListBooks returns one page of books matching the query.
// Search matches title, isbn, or author case-insensitively; an empty status filter matches all.
func (s *Store) ListBooks(ctx context.Context, query catalog.ListQuery) (catalog.Page, error) {
	if err := query.Validate(); err != nil {
		return catalog.Page{}, err
	}

	query = query.Normalized()
	offset, _ := query.Offset() // range checked by Validate
	conditions := listConditions(query)

	countSQL, countArgs, err := builder().
		From(tableBooks).
		Select(goqu.COUNT(goqu.Star()).As(aliasTotal)).
		Where(conditions...).
		ToSQL()
	if err != nil {
		return catalog.Page{}, s.buildFailed(ctx, "list_books_count", err)
	}

	var total int64
	if err = s.query(ctx, "list_books_count", countSQL, countArgs, func(rows adapters.DBRows) error {
		if scanErr := rows.Scan(&total); scanErr != nil {
			return errors.Join(ErrScanningRowFailed, scanErr)
		}
		return nil
	}); err != nil {
		return catalog.Page{}, err
	}

	listSQL, listArgs, err := builder().
		From(tableBooks).
		Select(bookColumns()...).
		Where(conditions...).
		Order(orderExpression(query), goqu.C(colID).Asc()).
		Limit(uint(query.PageSize)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return catalog.Page{}, s.buildFailed(ctx, "list_books", err)
	}

	content := make(catalog.Records, 0, expectedRows(total, offset, query.PageSize))
	if err = s.query(ctx, "list_books", listSQL, listArgs, func(rows adapters.DBRows) error {
		record, scanErr := scanBook(rows)
		if scanErr != nil {
			return scanErr
		}
		content = append(content, record)
		return nil
	}); err != nil {
		return catalog.Page{}, err
	}

	return buildPage(content, total, query), nil
}

func listConditions(query catalog.ListQuery) []exp.Expression {
	conditions := make([]exp.Expression, 0, 2)

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		conditions = append(conditions, goqu.Or(
			goqu.C(colTitle).ILike(pattern),
			goqu.C(colISBN).ILike(pattern),
			goqu.C(colAuthor).ILike(pattern),
		))
	}

	if !query.Statuses.IsEmpty() {
		included := query.Statuses.Included()
		names := make([]any, 0, len(included))
		for _, status := range included {
			names = append(names, status.String())
		}
		conditions = append(conditions, goqu.C(colStatus).In(names...))
	}

	return conditions
}

func orderExpression(query catalog.ListQuery) exp.OrderedExpression {
	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = colTitle
	}

	if query.Order == catalog.SortDesc {
		return goqu.C(column).Desc()
	}

	return goqu.C(column).Asc()
}

// expectedRows is how many records the page can hold at most, given the total.
func expectedRows(total, offset int64, pageSize int) int {
	remaining := total - offset
	if remaining <= 0 {
		return 0
	}

	return int(min(remaining, int64(pageSize)))
}

func buildPage(content catalog.Records, total int64, query catalog.ListQuery) catalog.Page {
	size := int64(query.PageSize)
	totalPages := int((total + size - 1) / size)

	return catalog.Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          query.PageIndex >= totalPages-1,
		Size:          query.PageSize,
		Number:        query.PageIndex,
	}
}

// GetBook returns the book with the given id or core.ErrBookNotFound.
func (s *Store) GetBook(ctx context.Context, id int64) (catalog.Record, error) {
	return s.getBookWhere(ctx, "get_book", goqu.C(colID).Eq(id))
}

// GetBookByISBN returns the book with the given ISBN or core.ErrBookNotFound.
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (catalog.Record, error) {
	return s.getBookWhere(ctx, "get_book_by_isbn", goqu.C(colISBN).Eq(isbn))
}

func (s *Store) getBookWhere(ctx context.Context, operation string, condition exp.Expression) (catalog.Record, error) {
	sqlQuery, args, err := builder().
		From(tableBooks).
		Select(bookColumns()...).
		Where(condition).
		Limit(1).
		ToSQL()
	if err != nil {
		return catalog.Record{}, s.buildFailed(ctx, operation, err)
	}

	record, found, err := s.queryBook(ctx, operation, sqlQuery, args)
	if err != nil {
		return catalog.Record{}, err
	}

	if !found {
		return catalog.Record{}, core.ErrBookNotFound
	}

	return record, nil
}

// CreateBook stores the draft and appends the ADD_BOOK entry in one statement.
// A duplicate ISBN yields core.ErrISBNAlreadyExists.
func (s *Store) CreateBook(ctx context.Context, draft catalog.Draft, entry core.ActionEntry) (catalog.Record, error) {
	b := builder()

	nextStmt := b.Select(goqu.L("nextval(?)", actionsIDSequence).As(aliasActionID))

	createStmt := b.Insert(tableBooks).
		Cols(colTitle, colAuthor, colISBN, colCoverURL, colStatus, colMaxActionID).
		FromQuery(
			b.From(cteNext).Select(
				goqu.L(castText, draft.Title),
				goqu.L(castText, draft.Author),
				goqu.L(castText, draft.ISBN),
				goqu.L(castText, draft.CoverURL),
				goqu.L(castText, draft.Status.String()),
				goqu.C(aliasActionID),
			),
		).
		Returning(append(bookColumns(), goqu.C(colMaxActionID))...)

	sqlQuery, args, err := b.From(cteChanged).
		With(cteNext, nextStmt).
		With(cteChanged, createStmt).
		With(cteLogged, logActionStatement(entry)).
		Select(bookColumns()...).
		ToSQL()
	if err != nil {
		return catalog.Record{}, s.buildFailed(ctx, "create_book", err)
	}

	record, found, err := s.queryBook(ctx, "create_book", sqlQuery, args)
	if err != nil {
		if isUniqueViolation(err) {
			s.logInfo(ctx, logMsgUniqueViolation, logAttrOperation, "create_book")
			return catalog.Record{}, core.ErrISBNAlreadyExists
		}
		return catalog.Record{}, err
	}

	if !found {
		return catalog.Record{}, errors.Join(ErrQueryingFailed, errors.New("insert returned no row"))
	}

	return record, nil
}

// UpdateBook overwrites title, author, isbn, and cover of an existing book.
// The status is kept: it only changes through lifecycle actions.
func (s *Store) UpdateBook(ctx context.Context, record catalog.Record) (catalog.Record, error) {
	sqlQuery, args, err := builder().
		Update(tableBooks).
		Set(goqu.Record{
			colTitle:    record.Title,
			colAuthor:   record.Author,
			colISBN:     record.ISBN,
			colCoverURL: record.CoverURL,
		}).
		Where(goqu.C(colID).Eq(record.ID)).
		Returning(bookColumns()...).
		ToSQL()
	if err != nil {
		return catalog.Record{}, s.buildFailed(ctx, "update_book", err)
	}

	updated, found, err := s.queryBook(ctx, "update_book", sqlQuery, args)
	if err != nil {
		if isUniqueViolation(err) {
			s.logInfo(ctx, logMsgUniqueViolation, logAttrOperation, "update_book")
			return catalog.Record{}, core.ErrISBNAlreadyExists
		}
		return catalog.Record{}, err
	}

	if !found {
		return catalog.Record{}, core.ErrBookNotFound
	}

	return updated, nil
}

// DeleteBook removes the book and appends the DELETE_BOOK entry in one statement.
// It fails with core.ErrConcurrencyConflict if the history changed since it was read.
func (s *Store) DeleteBook(ctx context.Context, history core.BookHistory, entry core.ActionEntry) error {
	b := builder()

	nextStmt := b.Select(goqu.L("nextval(?)", actionsIDSequence).As(aliasActionID))

	deleteStmt := b.Delete(tableBooks).
		Where(
			goqu.C(colID).Eq(history.Book.ID),
			goqu.C(colMaxActionID).Eq(history.MaxActionID),
		).
		Returning(goqu.C(colID), goqu.L("(SELECT ? FROM ?)", goqu.C(aliasActionID), goqu.T(cteNext)).As(colMaxActionID))

	sqlQuery, args, err := b.From(cteChanged).
		With(cteNext, nextStmt).
		With(cteChanged, deleteStmt).
		With(cteLogged, logActionStatement(entry)).
		Select(goqu.C(colID)).
		ToSQL()
	if err != nil {
		return s.buildFailed(ctx, "delete_book", err)
	}

	deleted := false
	if err = s.query(ctx, "delete_book", sqlQuery, args, func(rows adapters.DBRows) error {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			return errors.Join(ErrScanningRowFailed, scanErr)
		}
		deleted = true
		return nil
	}); err != nil {
		return err
	}

	if !deleted {
		s.logInfo(ctx, logMsgConcurrency,
			logAttrOperation, "delete_book",
			logAttrBookID, history.Book.ID,
			logAttrExpectedMax, history.MaxActionID,
		)
		return core.ErrConcurrencyConflict
	}

	return nil
}

// logActionStatement inserts entry into the action log for the row in the changed book CTE,
// using the action id reserved in the next action CTE.
func logActionStatement(entry core.ActionEntry) *goqu.InsertDataset {
	b := builder()

	var dueDate any
	if entry.DueDate != nil {
		dueDate = *entry.DueDate
	}

	return b.Insert(tableActions).
		Cols(colID, colBookID, colUserID, colAction, colActionDate, colDueDate).
		FromQuery(
			b.From(cteChanged).Select(
				goqu.C(colMaxActionID),
				goqu.C(colID),
				goqu.L(castBigint, entry.UserID),
				goqu.L(castText, string(entry.Type)),
				goqu.L(castTimestamptz, entry.ActionDate),
				goqu.L(castTimestamptz, dueDate),
			),
		)
}

// queryBook runs a statement whose result row holds book columns.
func (s *Store) queryBook(ctx context.Context, operation, sqlQuery string, args []any) (catalog.Record, bool, error) {
	var (
		record catalog.Record
		found  bool
	)

	err := s.query(ctx, operation, sqlQuery, args, func(rows adapters.DBRows) error {
		var scanErr error
		record, scanErr = scanBook(rows)
		found = scanErr == nil
		return scanErr
	})

	return record, found, err
}
