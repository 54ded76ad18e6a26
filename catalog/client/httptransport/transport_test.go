package httptransport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/booklending/catalog/client"
	"github.com/AntonStoeckl/booklending/catalog/client/httptransport"
	"github.com/AntonStoeckl/booklending/testutil/testdoubles"
)

type capturedRequest struct {
	method      string
	escapedPath string
	query       url.Values
	header      http.Header
	body        string
}

func givenServer(t *testing.T, status int, body string) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()

	captured := make(chan capturedRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		captured <- capturedRequest{
			method:      r.Method,
			escapedPath: r.URL.EscapedPath(),
			query:       r.URL.Query(),
			header:      r.Header.Clone(),
			body:        string(raw),
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, captured
}

func Test_New_RejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://catalog", "http://"} {
		_, err := httptransport.New(raw, nil)
		assert.ErrorIs(t, err, httptransport.ErrInvalidBaseURL, "base url %q should be rejected", raw)
	}

	_, err := httptransport.New("http://catalog", nil, httptransport.WithHTTPClient(nil))
	assert.ErrorIs(t, err, httptransport.ErrNilHTTPClient)

	_, err = httptransport.New("http://catalog", nil, httptransport.WithTimeout(0))
	assert.ErrorIs(t, err, httptransport.ErrInvalidTimeout)

	_, err = httptransport.New("http://catalog", nil, httptransport.WithMaxResponseBytes(0))
	assert.ErrorIs(t, err, httptransport.ErrInvalidMaxResponseBytes)
}

func Test_URL_ResolvesEndpointsUnderAPI(t *testing.T) {
	// arrange
	transport, err := httptransport.New("https://catalog.example/base/", nil)
	require.NoError(t, err)

	// act
	books := transport.URL(client.Request{Endpoint: client.EndpointBooks, Path: "/7"})
	actions := transport.URL(client.Request{
		Endpoint: client.EndpointActions,
		Path:     "/reserve_book",
		Query:    url.Values{"bookId": {"7"}, "userName": {"alice"}},
	})
	isbn := transport.URL(client.Request{Endpoint: client.EndpointBooks, Path: "/isbn/978%2F1"})

	// assert
	assert.Equal(t, "https://catalog.example/base/api/books/7", books)
	assert.Equal(t, "https://catalog.example/base/api/actions/reserve_book?bookId=7&userName=alice", actions)
	assert.Equal(t, "https://catalog.example/base/api/books/isbn/978%2F1", isbn, "escaped segments should be kept")
}

func Test_Do_AttachesBearerToken_WhenIdentityHasOne(t *testing.T) {
	// arrange
	server, captured := givenServer(t, http.StatusOK, `{"id":1}`)
	transport, err := httptransport.New(server.URL, testdoubles.NewIdentityStub("alice", "tok-123"))
	require.NoError(t, err)

	// act
	resp, err := transport.Do(context.Background(), client.Request{
		Method:   http.MethodPost,
		Endpoint: client.EndpointBooks,
		Query:    url.Values{"userName": {"alice"}},
		Body:     []byte(`{"title":"Dune"}`),
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"id":1}`, string(resp.Body))

	req := <-captured
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/books", req.escapedPath)
	assert.Equal(t, "alice", req.query.Get("userName"))
	assert.Equal(t, "Bearer tok-123", req.header.Get("Authorization"))
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))
	assert.Equal(t, `{"title":"Dune"}`, req.body)

	_, parseErr := uuid.Parse(req.header.Get("X-Request-ID"))
	assert.NoError(t, parseErr, "request id should be a uuid")
}

func Test_Do_OmitsAuthorization_WithoutToken(t *testing.T) {
	// arrange
	server, captured := givenServer(t, http.StatusNoContent, "")
	transport, err := httptransport.New(server.URL, testdoubles.NewIdentityStub("alice", ""))
	require.NoError(t, err)

	// act
	_, err = transport.Do(context.Background(), client.Request{Method: http.MethodDelete, Endpoint: client.EndpointBooks, Path: "/7"})

	// assert
	require.NoError(t, err)

	req := <-captured
	assert.Empty(t, req.header.Get("Authorization"), "no token means no authorization header")
	assert.Empty(t, req.header.Get("Content-Type"), "bodyless requests carry no content type")
}

func Test_Do_ReturnsNon2xxAsResponse(t *testing.T) {
	// arrange
	server, _ := givenServer(t, http.StatusNotFound, `{"message":"Reservation not found"}`)
	transport, err := httptransport.New(server.URL, nil)
	require.NoError(t, err)

	// act
	resp, err := transport.Do(context.Background(), client.Request{Method: http.MethodPost, Endpoint: client.EndpointActions, Path: "/cancel_reservation"})

	// assert
	require.NoError(t, err, "a response is never an error")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.IsSuccess())
}

func Test_Do_FailsOnTimeout(t *testing.T) {
	// arrange
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	transport, err := httptransport.New(server.URL, nil, httptransport.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	// act
	_, err = transport.Do(context.Background(), client.Request{Method: http.MethodGet, Endpoint: client.EndpointBooks})

	// assert
	assert.Error(t, err, "a timed out request has no response")
}

func Test_Do_RejectsOversizedBody(t *testing.T) {
	// arrange
	server, _ := givenServer(t, http.StatusOK, strings.Repeat("x", 17))
	transport, err := httptransport.New(server.URL, nil, httptransport.WithMaxResponseBytes(16))
	require.NoError(t, err)

	// act
	_, err = transport.Do(context.Background(), client.Request{Method: http.MethodGet, Endpoint: client.EndpointBooks})

	// assert
	assert.ErrorIs(t, err, httptransport.ErrResponseTooLarge, "a truncated body must not be handed to the decoder")
}

func Test_Do_AcceptsBodyOfExactlyTheLimit(t *testing.T) {
	// arrange
	server, _ := givenServer(t, http.StatusOK, strings.Repeat("x", 16))
	transport, err := httptransport.New(server.URL, nil, httptransport.WithMaxResponseBytes(16))
	require.NoError(t, err)

	// act
	resp, err := transport.Do(context.Background(), client.Request{Method: http.MethodGet, Endpoint: client.EndpointBooks})

	// assert
	require.NoError(t, err)
	assert.Len(t, resp.Body, 16)
}

func Test_WithTimeout_LeavesSuppliedClientUntouched(t *testing.T) {
	// arrange
	supplied := &http.Client{Timeout: time.Minute}

	// act
	_, err := httptransport.New("http://catalog", nil,
		httptransport.WithHTTPClient(supplied),
		httptransport.WithTimeout(time.Second),
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, time.Minute, supplied.Timeout)
}
