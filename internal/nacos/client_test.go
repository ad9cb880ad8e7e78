package nacos

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yanickxia/nacos-perf-utils/internal/clients/mocks"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
}

// fakeNacos grava as requisições recebidas e responde com status/body fixos.
type fakeNacos struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func newFakeNacos(t *testing.T, status int, body string) (*fakeNacos, *httptest.Server) {
	t.Helper()
	f := &fakeNacos{status: status, body: body}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Form:   r.PostForm,
		})
		f.mu.Unlock()
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeNacos) all() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

func TestLogin(t *testing.T) {
	t.Run("ValidLogin", func(t *testing.T) {
		fake, server := newFakeNacos(t, http.StatusOK, `{"accessToken":"abc","tokenTtl":18000,"globalAdmin":true}`)
		client := NewClient(server.URL)

		token, err := client.Login(context.Background(), "nacos", "secret")

		require.NoError(t, err)
		assert.Equal(t, Token("abc"), token)
		reqs := fake.all()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodPost, reqs[0].Method)
		assert.Equal(t, LoginPath, reqs[0].Path)
		assert.Equal(t, "nacos", reqs[0].Form.Get("username"))
		assert.Equal(t, "secret", reqs[0].Form.Get("password"))
	})

	t.Run("ForbiddenStatus", func(t *testing.T) {
		_, server := newFakeNacos(t, http.StatusForbidden, "unknown user!")
		client := NewClient(server.URL)

		token, err := client.Login(context.Background(), "nacos", "errada")

		assert.Empty(t, token)
		require.ErrorIs(t, err, ErrAuth)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, http.StatusForbidden, authErr.StatusCode)
		assert.Contains(t, err.Error(), "unknown user!")
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, server := newFakeNacos(t, http.StatusOK, `{"accessToken":`)
		client := NewClient(server.URL)

		_, err := client.Login(context.Background(), "nacos", "secret")

		require.ErrorIs(t, err, ErrAuth)
		assert.Contains(t, err.Error(), "decodificar")
	})

	t.Run("MissingToken", func(t *testing.T) {
		_, server := newFakeNacos(t, http.StatusOK, `{"tokenTtl":18000}`)
		client := NewClient(server.URL)

		_, err := client.Login(context.Background(), "nacos", "secret")

		require.ErrorIs(t, err, ErrAuth)
		assert.Contains(t, err.Error(), "accessToken")
	})

	t.Run("TransportError", func(t *testing.T) {
		httpClient := new(mocks.MockHTTPClient)
		httpClient.On("Do", mock.AnythingOfType("*http.Request")).Return(nil, errors.New("connection refused"))
		client := NewClient("http://nacos:8848", WithCustomHTTPClient(httpClient))

		_, err := client.Login(context.Background(), "nacos", "secret")

		require.ErrorIs(t, err, ErrAuth)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Zero(t, authErr.StatusCode)
		httpClient.AssertExpectations(t)
	})
}

func TestRegisterInstance(t *testing.T) {
	t.Run("WithoutToken", func(t *testing.T) {
		fake, server := newFakeNacos(t, http.StatusOK, "ok")
		client := NewClient(server.URL + "/")

		err := client.RegisterInstance(context.Background(), 10001, "mock-10001", "")

		require.NoError(t, err)
		reqs := fake.all()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodPost, reqs[0].Method)
		assert.Equal(t, InstancePath, reqs[0].Path)
		assert.Equal(t, "10001", reqs[0].Query.Get("port"))
		assert.Equal(t, "localhost", reqs[0].Query.Get("ip"))
		assert.Equal(t, "true", reqs[0].Query.Get("ephemeral"))
		assert.Equal(t, "mock-10001", reqs[0].Query.Get("serviceName"))
		assert.False(t, reqs[0].Query.Has("accessToken"))
		assert.False(t, reqs[0].Query.Has("namespaceId"))
		assert.False(t, reqs[0].Query.Has("groupName"))
	})

	t.Run("WithTokenNamespaceAndGroup", func(t *testing.T) {
		fake, server := newFakeNacos(t, http.StatusOK, "ok")
		client := NewClient(server.URL, WithNamespace("perf"), WithGroupName("MOCK_GROUP"))

		err := client.RegisterInstance(context.Background(), 10002, "mock-10002", "abc")

		require.NoError(t, err)
		reqs := fake.all()
		require.Len(t, reqs, 1)
		assert.Equal(t, "abc", reqs[0].Query.Get("accessToken"))
		assert.Equal(t, "perf", reqs[0].Query.Get("namespaceId"))
		assert.Equal(t, "MOCK_GROUP", reqs[0].Query.Get("groupName"))
	})

	t.Run("ServerError", func(t *testing.T) {
		_, server := newFakeNacos(t, http.StatusInternalServerError, "boom")
		client := NewClient(server.URL)

		err := client.RegisterInstance(context.Background(), 10003, "mock-10003", "")

		require.ErrorIs(t, err, ErrRegistration)
		var regErr *RegistrationError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, uint32(10003), regErr.Port)
		assert.Equal(t, "mock-10003", regErr.ServiceName)
		assert.Equal(t, http.StatusInternalServerError, regErr.StatusCode)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, "boom", statusErr.Body)
	})

	t.Run("MalformedURL", func(t *testing.T) {
		httpClient := new(mocks.MockHTTPClient)
		client := NewClient("http://[::1", WithCustomHTTPClient(httpClient))

		err := client.RegisterInstance(context.Background(), 10004, "mock-10004", "")

		require.ErrorIs(t, err, ErrRegistration)
		httpClient.AssertNotCalled(t, "Do", mock.Anything)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		_, server := newFakeNacos(t, http.StatusOK, "ok")
		client := NewClient(server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.RegisterInstance(ctx, 10005, "mock-10005", "")

		require.ErrorIs(t, err, ErrRegistration)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHeartbeat(t *testing.T) {
	t.Run("ValidHeartbeat", func(t *testing.T) {
		fake, server := newFakeNacos(t, http.StatusOK, `{"clientBeatInterval":5000,"code":10200}`)
		client := NewClient(server.URL)

		err := client.Heartbeat(context.Background(), 10001, "mock-10001", "abc")

		require.NoError(t, err)
		reqs := fake.all()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodPut, reqs[0].Method)
		assert.Equal(t, HeartbeatPath, reqs[0].Path)
		assert.Equal(t, "mock-10001", reqs[0].Query.Get("serviceName"))
		assert.Equal(t, "abc", reqs[0].Query.Get("accessToken"))
		assert.Equal(t, `{"port":10001,"ip":"localhost","serviceName":"mock-10001"}`, reqs[0].Query.Get("beat"))
	})

	t.Run("TwoBeatsAreIdentical", func(t *testing.T) {
		fake, server := newFakeNacos(t, http.StatusOK, "ok")
		client := NewClient(server.URL)

		require.NoError(t, client.Heartbeat(context.Background(), 10001, "mock-10001", "abc"))
		require.NoError(t, client.Heartbeat(context.Background(), 10001, "mock-10001", "abc"))

		reqs := fake.all()
		require.Len(t, reqs, 2)
		assert.Equal(t, reqs[0], reqs[1])
	})

	t.Run("WithoutToken", func(t *testing.T) {
		fake, server := newFakeNacos(t, http.StatusOK, "ok")
		client := NewClient(server.URL)

		require.NoError(t, client.Heartbeat(context.Background(), 10001, "mock-10001", ""))

		reqs := fake.all()
		require.Len(t, reqs, 1)
		assert.False(t, reqs[0].Query.Has("accessToken"))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, server := newFakeNacos(t, http.StatusNotFound, "")
		client := NewClient(server.URL)

		err := client.Heartbeat(context.Background(), 10001, "mock-10001", "")

		require.ErrorIs(t, err, ErrHeartbeat)
		var beatErr *HeartbeatError
		require.ErrorAs(t, err, &beatErr)
		assert.Equal(t, http.StatusNotFound, beatErr.StatusCode)
		assert.Equal(t, uint32(10001), beatErr.Port)
	})

	t.Run("TransportError", func(t *testing.T) {
		httpClient := new(mocks.MockHTTPClient)
		httpClient.On("Do", mock.AnythingOfType("*http.Request")).Return(nil, errors.New("timeout"))
		client := NewClient("http://nacos:8848", WithCustomHTTPClient(httpClient))

		err := client.Heartbeat(context.Background(), 10001, "mock-10001", "")

		require.ErrorIs(t, err, ErrHeartbeat)
		assert.Contains(t, err.Error(), "timeout")
		httpClient.AssertExpectations(t)
	})

	t.Run("ErrorOnMarshalBeat", func(t *testing.T) {
		originalMarshalFunc := marshalFunc
		defer func() { marshalFunc = originalMarshalFunc }()
		marshalFunc = func(v any) ([]byte, error) {
			return nil, errors.New("falha intencional na serialização")
		}
		httpClient := new(mocks.MockHTTPClient)
		client := NewClient("http://nacos:8848", WithCustomHTTPClient(httpClient))

		err := client.Heartbeat(context.Background(), 10001, "mock-10001", "")

		require.ErrorIs(t, err, ErrHeartbeat)
		assert.Contains(t, err.Error(), "falha intencional na serialização")
		httpClient.AssertNotCalled(t, "Do", mock.Anything)
	})

	t.Run("MockedResponseBodyIsDrained", func(t *testing.T) {
		body := &trackingBody{Reader: bytes.NewReader([]byte(`{"code":10200}`))}
		httpClient := new(mocks.MockHTTPClient)
		httpClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			return req.Method == http.MethodPut && req.URL.Path == HeartbeatPath
		})).Return(&http.Response{StatusCode: http.StatusOK, Body: body}, nil)
		client := NewClient("http://nacos:8848", WithCustomHTTPClient(httpClient))

		require.NoError(t, client.Heartbeat(context.Background(), 10001, "mock-10001", ""))
		assert.True(t, body.closed)
		httpClient.AssertExpectations(t)
	})
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestBeatPayload(t *testing.T) {
	beat, err := BeatPayload(10042, "mock-10042")
	require.NoError(t, err)
	assert.Equal(t, `{"port":10042,"ip":"localhost","serviceName":"mock-10042"}`, beat)
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://nacos:8848///")
	assert.Equal(t, "http://nacos:8848", client.ServerAddr())
	assert.NotNil(t, client.httpClient)
}
