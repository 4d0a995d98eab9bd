// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/appauth-go/connection"
	"github.com/stacklok/appauth-go/connection/mocks"
	"github.com/stacklok/appauth-go/env"
	envmocks "github.com/stacklok/appauth-go/env/mocks"
)

func TestNewConfiguration_Defaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfiguration()
	assert.False(t, cfg.SkipIssuerHTTPSChecks)
	assert.Equal(t, connection.DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, connection.DefaultReadTimeout, cfg.ReadTimeout)
	assert.IsType(t, &connection.DefaultBuilder{}, cfg.ConnectionBuilder())
	assert.IsType(t, SystemClock{}, cfg.Clock())

	insecure := NewConfiguration(WithSkipIssuerHTTPSChecks(true))
	assert.IsType(t, &connection.InsecureBuilder{}, insecure.ConnectionBuilder())
}

func TestConfiguration_WithConnectionBuilder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	builder := mocks.NewMockBuilder(ctrl)
	builder.EXPECT().Build().Return(nil, assert.AnError)

	cfg := NewConfiguration(WithConnectionBuilder(builder))
	assert.Same(t, builder, cfg.ConnectionBuilder())

	config := newTestServiceConfiguration(t, "https://idp.example.com")
	_, tokenReq := exchangeRequest(t, config)
	_, err := NewAuthorizationService(cfg).PerformTokenRequest(t.Context(), tokenReq, nil)
	assert.ErrorIs(t, err, GeneralErrors.NetworkError)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoadConfiguration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "appauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
skipIssuerHttpsChecks: false
connectTimeout: 30s
readTimeout: 5s
browserPolicyFile: /etc/appauth/browsers.yaml
flowStateDir: /var/lib/appauth
`), 0o600))

	t.Run("file only", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadConfiguration(path, env.MapReader{})
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
		assert.Equal(t, "/etc/appauth/browsers.yaml", cfg.BrowserPolicyFile)
		assert.Equal(t, "/var/lib/appauth", cfg.FlowStateDir)
		assert.False(t, cfg.SkipIssuerHTTPSChecks)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		reader := envmocks.NewMockReader(ctrl)
		reader.EXPECT().Getenv(EnvSkipIssuerHTTPSChecks).Return("true")
		reader.EXPECT().Getenv(EnvConnectTimeout).Return("")
		reader.EXPECT().Getenv(EnvReadTimeout).Return("1m")

		cfg, err := LoadConfiguration(path, reader)
		require.NoError(t, err)
		assert.True(t, cfg.SkipIssuerHTTPSChecks)
		assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, time.Minute, cfg.ReadTimeout)
	})

	t.Run("no file", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadConfiguration("", env.MapReader{EnvConnectTimeout: "2s"})
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, connection.DefaultReadTimeout, cfg.ReadTimeout)
	})

	t.Run("invalid environment value", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfiguration("", env.MapReader{EnvSkipIssuerHTTPSChecks: "maybe"})
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfiguration(filepath.Join(dir, "missing.yaml"), env.MapReader{})
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("connectTimeout: [nope"), 0o600))
		_, err := LoadConfiguration(bad, env.MapReader{})
		assert.Error(t, err)
	})
}
