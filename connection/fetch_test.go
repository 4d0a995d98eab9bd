// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/appauth-go/httperr"
)

func newInsecureClient(t *testing.T) HTTPClient {
	t.Helper()
	client, err := NewInsecureBuilder().Build()
	require.NoError(t, err)
	return client
}

func TestFetchJSON(t *testing.T) {
	t.Parallel()

	errCustom := errors.New("custom")

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		opts       []FetchOption
		wantName   string
		wantErr    error
		wantStatus int
	}{
		{
			name:     "success",
			handler:  jsonHandler(http.StatusOK, `{"name":"ok"}`),
			wantName: "ok",
		},
		{
			name:       "server error without handler",
			handler:    jsonHandler(http.StatusInternalServerError, `{"error":"server_error"}`),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:    "error handler wins",
			handler: jsonHandler(http.StatusBadRequest, `{"error":"invalid_grant"}`),
			opts: []FetchOption{WithErrorHandler(func(_ *http.Response, _ []byte) error {
				return errCustom
			})},
			wantErr: errCustom,
		},
		{
			name:    "error handler returning nil falls back",
			handler: jsonHandler(http.StatusBadRequest, `{}`),
			opts: []FetchOption{WithErrorHandler(func(_ *http.Response, _ []byte) error {
				return nil
			})},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "wrong content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html></html>"))
			},
			wantErr: ErrUnexpectedContentType,
		},
		{
			name:    "malformed json",
			handler: jsonHandler(http.StatusOK, `{"name":`),
			wantErr: ErrMalformedJSON,
		},
		{
			name:     "accepted status override",
			handler:  jsonHandler(http.StatusCreated, `{"name":"created"}`),
			opts:     []FetchOption{WithAcceptedStatus(http.StatusOK, http.StatusCreated)},
			wantName: "created",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			result, err := FetchJSON[payload](context.Background(), newInsecureClient(t), srv.URL, tt.opts...)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantStatus != 0:
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, httperr.Code(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantName, result.Data.Name)
				assert.NotEmpty(t, result.Raw)
			}
		})
	}
}

func TestFetchJSONWithForm(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ContentTypeFormURLEncoded, r.Header.Get("Content-Type"))
		assert.Equal(t, ContentTypeJSON, r.Header.Get("Accept"))
		assert.Equal(t, "Basic abc", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		jsonHandler(http.StatusOK, `{"name":"`+r.PostForm.Get("grant_type")+`"}`)(w, r)
	}))
	t.Cleanup(srv.Close)

	form := url.Values{"grant_type": {"refresh_token"}}
	result, err := FetchJSONWithForm[payload](context.Background(), newInsecureClient(t), srv.URL, form,
		WithHeader("Authorization", "Basic abc"))
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", result.Data.Name)
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ContentTypeJSON, r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var in payload
		assert.NoError(t, json.Unmarshal(raw, &in))
		jsonHandler(http.StatusCreated, `{"name":"`+in.Name+`-registered"}`)(w, r)
	}))
	t.Cleanup(srv.Close)

	result, err := PostJSON[payload](context.Background(), newInsecureClient(t), srv.URL, payload{Name: "c1"},
		WithAcceptedStatus(http.StatusCreated))
	require.NoError(t, err)
	assert.Equal(t, "c1-registered", result.Data.Name)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
}

func TestIsJSONContentType(t *testing.T) {
	t.Parallel()

	assert.True(t, IsJSONContentType("application/json"))
	assert.True(t, IsJSONContentType("Application/JSON; charset=utf-8"))
	assert.False(t, IsJSONContentType("text/plain"))
	assert.False(t, IsJSONContentType(""))
}
