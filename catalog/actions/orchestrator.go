// Package actions implements the Action Orchestrator: it runs lifecycle actions and record edits
// against the catalog, reconciles the listing with the returned record, and tells the user how it went.
package actions

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/booklending/catalog"
)

const (
	logMsgActionSucceeded = "catalog action succeeded"
	logMsgActionFailed    = "catalog action failed"
	logMsgFormRejected    = "book form rejected"
	logMsgNotInListing    = "updated record is not loaded in the listing"
	logAttrAction         = "action"
	logAttrRecordID       = "record_id"
	logAttrStatus         = "status"
	logAttrErrorKind      = "error_kind"
	logAttrError          = "error"
	logAttrFields         = "fields"
)

// Operations reported in Result.Action for record edits.
const (
	OperationCreate catalog.Action = "create"
	OperationUpdate catalog.Action = "update"
)

var (
	// ErrNilCatalog is returned when NewOrchestrator is called without a Catalog.
	ErrNilCatalog = errors.New("catalog must not be nil")

	// ErrNilListing is returned when NewOrchestrator is called without a Listing.
	ErrNilListing = errors.New("listing must not be nil")

	// ErrNilIdentity is returned when NewOrchestrator is called without an Identity.
	ErrNilIdentity = errors.New("identity must not be nil")

	// ErrNilNotifier is returned when NewOrchestrator is called without a Notifier.
	ErrNilNotifier = errors.New("notifier must not be nil")
)

// Catalog is the part of the Catalog Client the orchestrator needs.
type Catalog interface {
	PerformAction(ctx context.Context, action catalog.Action, actor string, id int64) (catalog.Record, error)
	Create(ctx context.Context, draft catalog.Draft) (catalog.Record, error)
	Update(ctx context.Context, record catalog.Record) (catalog.Record, error)
}

// Listing is the part of the Listing Controller the orchestrator reconciles.
type Listing interface {
	ReplaceByID(record catalog.Record) bool
	RemoveByID(id int64) bool
	Reload(ctx context.Context) bool
}

// Result describes the outcome of one orchestrated call. Err is nil on success.
type Result struct {
	Action   catalog.Action
	RecordID int64
	Record   catalog.Record
	Kind     catalog.ErrorKind
	Message  string
	Err      error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Orchestrator is the Action Orchestrator. It is safe for concurrent use.
type Orchestrator struct {
	catalog           Catalog
	listing           Listing
	identity          catalog.Identity
	notifier          catalog.Notifier
	messages          Messages
	reloadAfterRemove bool
	reloadAfterCreate bool
	logger            catalog.Logger
	contextualLogger  catalog.ContextualLogger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	catalogClient Catalog,
	listing Listing,
	identity catalog.Identity,
	notifier catalog.Notifier,
	opts ...Option,
) (*Orchestrator, error) {
	switch {
	case catalogClient == nil:
		return nil, ErrNilCatalog
	case listing == nil:
		return nil, ErrNilListing
	case identity == nil:
		return nil, ErrNilIdentity
	case notifier == nil:
		return nil, ErrNilNotifier
	}

	o := &Orchestrator{
		catalog:           catalogClient,
		listing:           listing,
		identity:          identity,
		notifier:          notifier,
		messages:          DefaultMessages(),
		reloadAfterCreate: true,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Perform runs action on the record with recordID on behalf of the current identity.
// On success the listing gets the updated record (or loses the removed one). On failure the listing
// stays untouched. Either way exactly one notification is sent.
func (o *Orchestrator) Perform(ctx context.Context, action catalog.Action, recordID int64) Result {
	result := Result{Action: action, RecordID: recordID, Kind: catalog.KindNone}
	msgs := o.messages.forAction(action)

	record, err := o.catalog.PerformAction(ctx, action, o.identity.CurrentUsername(), recordID)
	if err != nil {
		return o.fail(ctx, result, err, msgs.NotFound, o.messages.Transport)
	}

	result.Record = record

	if action.IsRemoval() {
		o.listing.RemoveByID(recordID)
	} else if !o.listing.ReplaceByID(record) {
		o.logDebug(ctx, logMsgNotInListing, logAttrRecordID, recordID)
	}

	attrs := []any{logAttrAction, action.String(), logAttrRecordID, recordID}
	if !action.IsRemoval() {
		attrs = append(attrs, logAttrStatus, record.Status.String())
	}
	o.logInfo(ctx, logMsgActionSucceeded, attrs...)

	result.Message = msgs.Success
	o.notifier.Notify(result.Message, false)

	if action.IsRemoval() && o.reloadAfterRemove {
		o.listing.Reload(ctx)
	}

	return result
}

// AddBook validates draft locally and creates it. An invalid draft is rejected without any network call.
func (o *Orchestrator) AddBook(ctx context.Context, draft catalog.Draft) Result {
	result := Result{Action: OperationCreate, Kind: catalog.KindNone}

	draft = draft.Normalized()
	if err := catalog.ValidateDraft(draft); err != nil {
		return o.reject(ctx, result, err)
	}

	record, err := o.catalog.Create(ctx, draft)
	if err != nil {
		return o.fail(ctx, result, err, "", o.messages.CreateFailed)
	}

	result.Record = record
	result.RecordID = record.ID
	result.Message = o.messages.Created

	o.logInfo(ctx, logMsgActionSucceeded, logAttrAction, OperationCreate.String(), logAttrRecordID, record.ID)
	o.notifier.Notify(result.Message, false)

	if o.reloadAfterCreate {
		o.listing.Reload(ctx)
	}

	return result
}

// UpdateBook validates record's editable fields locally, updates it, and replaces it in the listing.
func (o *Orchestrator) UpdateBook(ctx context.Context, record catalog.Record) Result {
	result := Result{Action: OperationUpdate, RecordID: record.ID, Kind: catalog.KindNone}

	if err := catalog.ValidateDraft(record.Draft()); err != nil {
		return o.reject(ctx, result, err)
	}

	normalized := record.Draft().Normalized().ToRecord(record.ID)

	updated, err := o.catalog.Update(ctx, normalized)
	if err != nil {
		return o.fail(ctx, result, err, o.messages.BookNotFound, o.messages.UpdateFailed)
	}

	result.Record = updated
	result.Message = o.messages.Updated

	o.listing.ReplaceByID(updated)
	o.logInfo(ctx, logMsgActionSucceeded, logAttrAction, OperationUpdate.String(), logAttrRecordID, record.ID)
	o.notifier.Notify(result.Message, false)

	return result
}

func (o *Orchestrator) reject(ctx context.Context, result Result, err error) Result {
	result.Err = err
	result.Kind = catalog.KindValidation
	result.Message = o.messages.InvalidForm

	o.logWarn(ctx, logMsgFormRejected, logAttrAction, result.Action.String(), logAttrFields, catalog.InvalidFields(err))
	o.notifier.Notify(result.Message, true)

	return result
}

func (o *Orchestrator) fail(ctx context.Context, result Result, err error, notFound, fallback string) Result {
	result.Err = err
	result.Kind = catalog.Classify(err)
	result.Message = o.messages.forFailure(result.Kind, notFound, fallback)

	o.logWarn(ctx, logMsgActionFailed,
		logAttrAction, result.Action.String(),
		logAttrRecordID, result.RecordID,
		logAttrErrorKind, string(result.Kind),
		logAttrError, err.Error(),
	)

	if result.Kind != catalog.KindCanceled {
		o.notifier.Notify(result.Message, true)
	}

	return result
}

func (o *Orchestrator) logDebug(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.DebugContext(ctx, msg, args...)
	} else if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o *Orchestrator) logInfo(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.InfoContext(ctx, msg, args...)
	} else if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) logWarn(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.WarnContext(ctx, msg, args...)
	} else if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
