package httpapi_test

import (
	"context"
	"sort"
	"sync"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
)

// storeFake is an in-memory Store with the same append guard as the postgres store.
type storeFake struct {
	mu              sync.Mutex
	books           map[int64]catalog.Record
	entries         map[int64][]core.ActionEntry
	users           map[string]core.User
	nextBookID      int64
	nextActionID    int64
	nextUserID      int64
	appendConflicts int
	appendCalls     int
	listQueries     []catalog.ListQuery
}

func newStoreFake() *storeFake {
	return &storeFake{
		books:      map[int64]catalog.Record{},
		entries:    map[int64][]core.ActionEntry{},
		users:      map[string]core.User{},
		nextBookID: 1,
		nextUserID: 1,
	}
}

func (f *storeFake) addUser(username, passwordHash string, role catalog.Role) core.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := core.User{ID: f.nextUserID, Username: username, PasswordHash: passwordHash, Role: role}
	f.nextUserID++
	f.users[username] = user

	return user
}

func (f *storeFake) addBook(record catalog.Record) catalog.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	record.ID = f.nextBookID
	f.nextBookID++
	f.books[record.ID] = record

	return record
}

func (f *storeFake) ListBooks(_ context.Context, query catalog.ListQuery) (catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listQueries = append(f.listQueries, query)

	content := make(catalog.Records, 0, len(f.books))
	for _, record := range f.books {
		content = append(content, record)
	}

	sort.Slice(content, func(i, j int) bool { return content[i].ID < content[j].ID })

	return catalog.Page{
		Content:       content,
		TotalElements: int64(len(content)),
		TotalPages:    1,
		Last:          true,
		Size:          query.PageSize,
		Number:        query.PageIndex,
	}, nil
}

func (f *storeFake) GetBook(_ context.Context, id int64) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.books[id]
	if !ok {
		return catalog.Record{}, core.ErrBookNotFound
	}

	return record, nil
}

func (f *storeFake) GetBookByISBN(_ context.Context, isbn string) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.books {
		if record.ISBN == isbn {
			return record, nil
		}
	}

	return catalog.Record{}, core.ErrBookNotFound
}

func (f *storeFake) CreateBook(_ context.Context, draft catalog.Draft, entry core.ActionEntry) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record := draft.ToRecord(f.nextBookID)
	f.nextBookID++
	f.books[record.ID] = record
	f.appendEntry(record.ID, entry)

	return record, nil
}

func (f *storeFake) UpdateBook(_ context.Context, record catalog.Record) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.books[record.ID]
	if !ok {
		return catalog.Record{}, core.ErrBookNotFound
	}

	record.Status = current.Status
	f.books[record.ID] = record

	return record, nil
}

func (f *storeFake) DeleteBook(_ context.Context, history core.BookHistory, entry core.ActionEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.books[history.Book.ID]; !ok || f.maxActionID(history.Book.ID) != history.MaxActionID {
		return core.ErrConcurrencyConflict
	}

	delete(f.books, history.Book.ID)
	f.appendEntry(history.Book.ID, entry)

	return nil
}

func (f *storeFake) BookHistory(_ context.Context, bookID int64) (core.BookHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.books[bookID]
	if !ok {
		return core.BookHistory{}, nil
	}

	return core.BookHistory{
		Book:        record,
		Entries:     append([]core.ActionEntry(nil), f.entries[bookID]...),
		MaxActionID: f.maxActionID(bookID),
	}, nil
}

func (f *storeFake) AppendAction(_ context.Context, history core.BookHistory, decision core.DecisionResult) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.appendCalls++

	if f.appendConflicts > 0 {
		f.appendConflicts--
		return catalog.Record{}, core.ErrConcurrencyConflict
	}

	record, ok := f.books[history.Book.ID]
	if !ok || f.maxActionID(history.Book.ID) != history.MaxActionID {
		return catalog.Record{}, core.ErrConcurrencyConflict
	}

	record.Status = decision.NewStatus
	f.books[record.ID] = record
	f.appendEntry(record.ID, *decision.Entry)

	return record, nil
}

func (f *storeFake) FindUser(_ context.Context, username string) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[username]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}

	return user, nil
}

func (f *storeFake) CreateUser(_ context.Context, username, passwordHash string, role catalog.Role) (core.User, error) {
	f.mu.Lock()
	if _, ok := f.users[username]; ok {
		f.mu.Unlock()
		return core.User{}, core.ErrUserAlreadyExists
	}
	f.mu.Unlock()

	return f.addUser(username, passwordHash, role), nil
}

func (f *storeFake) bookStatus(id int64) catalog.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.books[id].Status
}

func (f *storeFake) entryTypes(id int64) []core.ActionType {
	f.mu.Lock()
	defer f.mu.Unlock()

	types := make([]core.ActionType, 0, len(f.entries[id]))
	for _, entry := range f.entries[id] {
		types = append(types, entry.Type)
	}

	return types
}

func (f *storeFake) maxActionID(bookID int64) int64 {
	entries := f.entries[bookID]
	if len(entries) == 0 {
		return 0
	}

	return entries[len(entries)-1].ID
}

func (f *storeFake) appendEntry(bookID int64, entry core.ActionEntry) {
	f.nextActionID++
	entry.ID = f.nextActionID
	entry.BookID = bookID
	f.entries[bookID] = append(f.entries[bookID], entry)
}
