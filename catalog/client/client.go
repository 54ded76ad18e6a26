package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AntonStoeckl/booklending/catalog"
)

const (
	logMsgRequestCompleted = "catalog request completed"
	logMsgRequestFailed    = "catalog request failed"
	logMsgRecordRejected   = "dropped record with unknown status"
	logMsgEncodingFailed   = "failed to encode request body"
	logAttrOperation       = "operation"
	logAttrMethod          = "method"
	logAttrPath            = "path"
	logAttrStatusCode      = "status_code"
	logAttrDurationMS      = "duration_ms"
	logAttrError           = "error"
	logAttrErrorKind       = "error_kind"
	logAttrRecordID        = "record_id"
	logAttrRecordStatus    = "record_status"
	opList                 = "list"
	opGet                  = "get"
	opGetByISBN            = "get_by_isbn"
	opCreate               = "create"
	opUpdate               = "update"
	opRemove               = "remove"
	opPerformAction        = "perform_action"
	opLogin                = "login"
	paramPage              = "page"
	paramSize              = "size"
	paramSearchQuery       = "searchQuery"
	paramSortBy            = "sortBy"
	paramOrder             = "order"
	paramStatuses          = "statuses"
	paramUserName          = "userName"
	paramBookID            = "bookId"
	pathLogin              = "/login"
	pathISBNPrefix         = "/isbn/"
	pathSeparator          = "/"
)

// Client is the Catalog Client. It is safe for concurrent use; it holds no per-call state.
type Client struct {
	transport        Transport
	identity         catalog.Identity
	pageSize         int
	logger           catalog.Logger
	contextualLogger catalog.ContextualLogger
}

// NewClient creates a Client that sends requests through transport and attributes
// create, remove, and action calls to identity.
func NewClient(transport Transport, identity catalog.Identity, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	if identity == nil {
		return nil, ErrNilIdentity
	}

	c := &Client{
		transport: transport,
		identity:  identity,
		pageSize:  catalog.DefaultPageSize,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// List retrieves one page of records matching the query.
// An empty status filter means unfiltered: the statuses parameter is omitted.
// Records carrying an unknown status are dropped from the page and logged.
func (c *Client) List(ctx context.Context, query catalog.ListQuery) (catalog.Page, error) {
	if err := query.Validate(); err != nil {
		return catalog.Page{}, err
	}

	if query.PageSize == 0 {
		query.PageSize = c.pageSize
	}

	query = query.Normalized()

	params := url.Values{}
	params.Set(paramPage, strconv.Itoa(query.PageIndex))
	params.Set(paramSize, strconv.Itoa(query.PageSize))
	params.Set(paramSortBy, string(query.SortBy))
	params.Set(paramOrder, string(query.Order))

	if search := strings.TrimSpace(query.Search); search != "" {
		params.Set(paramSearchQuery, search)
	}

	if !query.Statuses.IsEmpty() {
		params.Set(paramStatuses, query.Statuses.String())
	}

	resp, err := c.do(ctx, opList, Request{Method: http.MethodGet, Endpoint: EndpointBooks, Query: params})
	if err != nil {
		return catalog.Page{}, err
	}

	page, rejected, err := decodePage(resp.Body)
	if err != nil {
		c.logError(ctx, logMsgRequestFailed, logAttrOperation, opList, logAttrError, err.Error())
		return catalog.Page{}, err
	}

	for _, r := range rejected {
		c.logWarn(ctx, logMsgRecordRejected, logAttrRecordID, r.ID, logAttrRecordStatus, r.Status)
	}

	return page, nil
}

// Get retrieves a single record by id.
func (c *Client) Get(ctx context.Context, id int64) (catalog.Record, error) {
	resp, err := c.do(ctx, opGet, Request{Method: http.MethodGet, Endpoint: EndpointBooks, Path: recordPath(id)})
	if err != nil {
		return catalog.Record{}, err
	}

	return decodeRecord(resp.Body)
}

// GetByISBN retrieves a single record by its ISBN.
func (c *Client) GetByISBN(ctx context.Context, isbn string) (catalog.Record, error) {
	req := Request{
		Method:   http.MethodGet,
		Endpoint: EndpointBooks,
		Path:     pathISBNPrefix + url.PathEscape(strings.TrimSpace(isbn)),
	}

	resp, err := c.do(ctx, opGetByISBN, req)
	if err != nil {
		return catalog.Record{}, err
	}

	return decodeRecord(resp.Body)
}

// Create adds a new record to the catalog on behalf of the current identity.
// A duplicate ISBN fails with catalog.ErrConflict, rejected fields with catalog.ErrValidation.
func (c *Client) Create(ctx context.Context, draft catalog.Draft) (catalog.Record, error) {
	body, err := c.encode(ctx, opCreate, draftToDTO(draft))
	if err != nil {
		return catalog.Record{}, err
	}

	req := Request{
		Method:   http.MethodPost,
		Endpoint: EndpointBooks,
		Query:    url.Values{paramUserName: {c.identity.CurrentUsername()}},
		Body:     body,
	}

	resp, err := c.do(ctx, opCreate, req)
	if err != nil {
		return catalog.Record{}, err
	}

	return decodeRecord(resp.Body)
}

// Update replaces the stored fields of an existing record.
func (c *Client) Update(ctx context.Context, record catalog.Record) (catalog.Record, error) {
	body, err := c.encode(ctx, opUpdate, recordToDTO(record))
	if err != nil {
		return catalog.Record{}, err
	}

	req := Request{
		Method:   http.MethodPut,
		Endpoint: EndpointBooks,
		Path:     recordPath(record.ID),
		Body:     body,
	}

	resp, err := c.do(ctx, opUpdate, req)
	if err != nil {
		return catalog.Record{}, err
	}

	return decodeRecord(resp.Body)
}

// Remove deletes a record on behalf of the current identity.
func (c *Client) Remove(ctx context.Context, id int64) error {
	req := Request{
		Method:   http.MethodDelete,
		Endpoint: EndpointBooks,
		Path:     recordPath(id),
		Query:    url.Values{paramUserName: {c.identity.CurrentUsername()}},
	}

	_, err := c.do(ctx, opRemove, req)

	return err
}

// PerformAction triggers a lifecycle action on a record, attributed to actor, and returns the updated record.
// It fails with catalog.ErrNotFound when the record, or the reservation or loan the action requires,
// does not exist in the state the action needs; with catalog.ErrTransport otherwise.
// ActionRemove is routed to Remove and yields a zero Record.
func (c *Client) PerformAction(ctx context.Context, action catalog.Action, actor string, id int64) (catalog.Record, error) {
	if action.IsRemoval() {
		return catalog.Record{}, c.Remove(ctx, id)
	}

	endpoint, ok := action.Endpoint()
	if !ok {
		return catalog.Record{}, errors.Join(catalog.ErrValidation, catalog.ErrUnknownAction, errors.New(action.String()))
	}

	if strings.TrimSpace(actor) == "" {
		return catalog.Record{}, errors.Join(catalog.ErrValidation, ErrMissingActor)
	}

	req := Request{
		Method:   http.MethodPost,
		Endpoint: EndpointActions,
		Path:     pathSeparator + endpoint,
		Query: url.Values{
			paramUserName: {actor},
			paramBookID:   {strconv.FormatInt(id, 10)},
		},
	}

	resp, err := c.do(ctx, opPerformAction, req)
	if err != nil {
		return catalog.Record{}, err
	}

	return decodeRecord(resp.Body)
}

// Login exchanges credentials for a bearer token. Wrong credentials fail with catalog.ErrUnauthorized.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := c.encode(ctx, opLogin, credentialsDTO{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, opLogin, Request{Method: http.MethodPost, Endpoint: EndpointAuth, Path: pathLogin, Body: body})
	if err != nil {
		return "", err
	}

	token := strings.Trim(strings.TrimSpace(string(resp.Body)), `"`)
	if token == "" {
		return "", errors.Join(catalog.ErrTransport, ErrDecodingResponseFailed, errors.New("empty token"))
	}

	return token, nil
}

// do sends the request and maps transport failures and non-2xx responses onto the catalog taxonomy.
func (c *Client) do(ctx context.Context, operation string, req Request) (Response, error) {
	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	duration := time.Since(start)

	if err != nil {
		mapped := errors.Join(catalog.ErrTransport, err)
		c.logFailure(ctx, operation, req, 0, mapped)

		return Response{}, mapped
	}

	if !resp.IsSuccess() {
		mapped := mapStatusCode(resp)
		c.logFailure(ctx, operation, req, resp.StatusCode, mapped)

		return Response{}, mapped
	}

	c.logDebug(ctx, logMsgRequestCompleted,
		logAttrOperation, operation,
		logAttrMethod, req.Method,
		logAttrPath, string(req.Endpoint)+req.Path,
		logAttrStatusCode, resp.StatusCode,
		logAttrDurationMS, float64(duration.Nanoseconds())/1e6,
	)

	return resp, nil
}

func (c *Client) encode(ctx context.Context, operation string, v any) ([]byte, error) {
	body, err := wire.Marshal(v)
	if err != nil {
		c.logError(ctx, logMsgEncodingFailed, logAttrOperation, operation, logAttrError, err.Error())
		return nil, errors.Join(catalog.ErrValidation, ErrEncodingRequestFailed, err)
	}

	return body, nil
}

func (c *Client) logFailure(ctx context.Context, operation string, req Request, statusCode int, err error) {
	c.logError(ctx, logMsgRequestFailed,
		logAttrOperation, operation,
		logAttrMethod, req.Method,
		logAttrPath, string(req.Endpoint)+req.Path,
		logAttrStatusCode, statusCode,
		logAttrErrorKind, string(catalog.Classify(err)),
		logAttrError, err.Error(),
	)
}

func (c *Client) logDebug(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.DebugContext(ctx, msg, args...)
	} else if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.WarnContext(ctx, msg, args...)
	} else if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Client) logError(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, msg, args...)
	} else if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}

func recordPath(id int64) string {
	return fmt.Sprintf("%s%d", pathSeparator, id)
}
