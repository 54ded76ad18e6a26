package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
)

const (
	paramPage        = "page"
	paramSize        = "size"
	paramSearchQuery = "searchQuery"
	paramSortBy      = "sortBy"
	paramOrder       = "order"
	paramStatuses    = "statuses"
	paramUserName    = "userName"
	paramBookID      = "bookId"
	varID            = "id"
	varISBN          = "isbn"

	actionTypeCreate = "create"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.store.ListBooks(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageDTO(page))
}

func parseListQuery(r *http.Request) (catalog.ListQuery, error) {
	params := r.URL.Query()

	pageIndex, err := intParam(params.Get(paramPage))
	if err != nil {
		return catalog.ListQuery{}, err
	}

	pageSize, err := intParam(params.Get(paramSize))
	if err != nil {
		return catalog.ListQuery{}, err
	}

	statuses, err := catalog.ParseFilterSet(params.Get(paramStatuses))
	if err != nil {
		return catalog.ListQuery{}, errors.Join(catalog.ErrValidation, err)
	}

	query := catalog.ListQuery{
		PageIndex: pageIndex,
		PageSize:  pageSize,
		Search:    strings.TrimSpace(params.Get(paramSearchQuery)),
		SortBy:    catalog.SortField(params.Get(paramSortBy)),
		Order:     catalog.SortOrder(strings.ToLower(params.Get(paramOrder))),
		Statuses:  statuses,
	}

	if err = query.Validate(); err != nil {
		return catalog.ListQuery{}, err
	}

	return query, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Join(catalog.ErrValidation, err)
	}

	return v, nil
}

func int64Param(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Join(catalog.ErrValidation, err)
	}

	return v, nil
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(mux.Vars(r)[varID])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	record, err := s.store.GetBook(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

func (s *Server) handleGetBookByISBN(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.GetBookByISBN(r.Context(), strings.TrimSpace(mux.Vars(r)[varISBN]))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var dto recordDTO
	if err := decodeBody(r, &dto); err != nil {
		s.writeError(w, r, err)
		return
	}

	draft, err := dto.toDraft()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	actor, err := s.resolveActor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var created catalog.Record

	err = s.observeAction(r.Context(), actionTypeCreate, func(ctx context.Context) (bool, error) {
		isbnTaken, lookupErr := s.isbnTaken(ctx, draft.Normalized().ISBN)
		if lookupErr != nil {
			return false, lookupErr
		}

		normalized, decision := core.DecideCreate(draft, isbnTaken, actor, s.now())
		if decisionErr := decision.HasError(); decisionErr != nil {
			return false, decisionErr
		}

		var createErr error
		created, createErr = s.store.CreateBook(ctx, normalized, *decision.Entry)

		return false, createErr
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecordDTO(created))
}

func (s *Server) isbnTaken(ctx context.Context, isbn string) (bool, error) {
	_, err := s.store.GetBookByISBN(ctx, isbn)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrBookNotFound):
		return false, nil
	default:
		return false, err
	}
}

// handleUpdateBook overwrites the editable fields of a book. Only admins may edit.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(mux.Vars(r)[varID])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if principal, _ := principalFrom(r.Context()); principal.Role != catalog.RoleAdmin {
		s.writeError(w, r, core.ErrRoleNotPermitted)
		return
	}

	var dto recordDTO
	if err = decodeBody(r, &dto); err != nil {
		s.writeError(w, r, err)
		return
	}

	draft, err := dto.toDraft()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	draft = draft.Normalized()
	if err = catalog.ValidateDraft(draft); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.store.UpdateBook(r.Context(), draft.ToRecord(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(updated))
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(mux.Vars(r)[varID])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	actor, err := s.resolveActor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	err = s.observeAction(r.Context(), catalog.ActionRemove.String(), func(ctx context.Context) (bool, error) {
		history, queryErr := s.store.BookHistory(ctx, id)
		if queryErr != nil {
			return false, queryErr
		}

		decision := core.DecideRemove(history, core.BuildActionCommand(catalog.ActionRemove, actor, id, s.now()))
		if decisionErr := decision.HasError(); decisionErr != nil {
			return false, decisionErr
		}

		return false, s.store.DeleteBook(ctx, history, *decision.Entry)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
