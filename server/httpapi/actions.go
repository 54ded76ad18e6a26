package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
	"github.com/AntonStoeckl/booklending/shell"
)

const (
	varEndpoint   = "endpoint"
	spanAttrBook  = "book_id"
	spanAttrActor = "actor"
)

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	endpoint := mux.Vars(r)[varEndpoint]

	action, ok := catalog.ActionFromEndpoint(endpoint)
	if !ok {
		s.writeError(w, r, errors.Join(catalog.ErrUnknownAction, errors.New(endpoint)))
		return
	}

	bookID, err := int64Param(r.URL.Query().Get(paramBookID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	actor, err := s.resolveActor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	record, err := s.performAction(r.Context(), action, actor, bookID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// performAction runs Query, Decide, and Append for one lifecycle action.
// The whole cycle is retried when the append loses a race against another writer.
func (s *Server) performAction(ctx context.Context, action catalog.Action, actor core.User, bookID int64) (catalog.Record, error) {
	var record catalog.Record

	err := s.observeAction(ctx, action.String(), func(ctx context.Context) (bool, error) {
		history, err := s.store.BookHistory(ctx, bookID)
		if err != nil {
			return false, err
		}

		decision := core.DecideAction(history, core.BuildActionCommand(action, actor, bookID, s.now()))
		if err = decision.HasError(); err != nil {
			return false, err
		}

		if decision.IsIdempotent() {
			record = history.Book
			return true, nil
		}

		record, err = s.store.AppendAction(ctx, history, decision)

		return false, err
	}, attrs(spanAttrBook, strconv.FormatInt(bookID, 10), spanAttrActor, actor.Username))

	return record, err
}

// observeAction wraps fn with retry on concurrency conflicts, metrics, tracing, and logging.
// fn reports whether the action turned out to be idempotent.
func (s *Server) observeAction(
	ctx context.Context,
	actionType string,
	fn func(ctx context.Context) (bool, error),
	spanAttrs ...map[string]string,
) error {
	start := time.Now()

	startAttrs := map[string]string{shell.LogAttrActionType: actionType}
	for _, extra := range spanAttrs {
		for k, v := range extra {
			startAttrs[k] = v
		}
	}

	ctx, span := shell.StartOperationSpan(ctx, s.tracingCollector, shell.SpanNameActionHandle, startAttrs)

	idempotent := false
	_, err := shell.RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		var attemptErr error
		idempotent, attemptErr = fn(ctx)
		return attemptErr
	}, s.retryOptionsFor(actionType)...)

	status := shell.StatusOf(err)
	if err == nil && idempotent {
		status = shell.StatusIdempotent
	}

	duration := time.Since(start)

	shell.RecordActionMetrics(ctx, s.metricsCollector, actionType, status, duration)
	shell.FinishSpan(s.tracingCollector, span, status, duration, err)
	shell.LogActionOutcome(ctx, s.logger, s.contextualLogger, actionType, status, duration, err)

	return err
}

func (s *Server) retryOptionsFor(actionType string) []shell.RetryOption {
	opts := append([]shell.RetryOption(nil), s.retryOptions...)

	if s.metricsCollector != nil {
		opts = append(opts, shell.WithMetrics(s.metricsCollector, actionType))
	}

	return opts
}

// resolveActor loads the acting user. The userName parameter may only name the signed-in user.
func (s *Server) resolveActor(r *http.Request) (core.User, error) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		return core.User{}, errMissingToken
	}

	username := strings.TrimSpace(r.URL.Query().Get(paramUserName))
	if username == "" {
		username = principal.Username
	}

	if username != principal.Username {
		return core.User{}, errActorMismatch
	}

	return s.store.FindUser(r.Context(), username)
}

func attrs(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}

	return m
}
