package test

import (
	"context"
	"testing"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/storage"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goAuthClient.New
	_ = goAuthClient.DefaultConfig

	var _ *goAuthClient.Engine
	var _ *goAuthClient.Builder
	var _ goAuthClient.Config
	var _ goAuthClient.TokenPair
	var _ goAuthClient.LoginResult
	var _ goAuthClient.RegisterRequest
	var _ goAuthClient.CallOptions
	var _ goAuthClient.APIResponse
	var _ goAuthClient.Principal
	var _ goAuthClient.PrincipalSource
	var _ goAuthClient.StateReport
	var _ goAuthClient.MetricsSnapshot
	var _ *goAuthClient.CredentialStore
	var _ *goAuthClient.Flow
	var _ goAuthClient.FlowState
	var _ goAuthClient.AuditSink
	var _ goAuthClient.AuditEvent
	var _ storage.Store = storage.NewMemory()

	var _ error = goAuthClient.ErrEngineNotReady
	var _ error = goAuthClient.ErrNoToken
	var _ error = goAuthClient.ErrTokenExpired
	var _ error = goAuthClient.ErrCSRFUnavailable
	var _ error = goAuthClient.ErrRefreshFailed
	var _ error = goAuthClient.ErrUnauthorized
	var _ error = goAuthClient.ErrLoginFailed
	var _ error = goAuthClient.ErrOrganizationRequired
	var _ error = goAuthClient.ErrFlowState
	var _ error = goAuthClient.ErrStateMismatch
	var _ error = goAuthClient.ErrProviderDenied
	var _ error = goAuthClient.ErrExchangeFailed

	var _ func(*goAuthClient.Engine, context.Context, string, string) (*goAuthClient.LoginResult, error) = (*goAuthClient.Engine).Login
	var _ func(*goAuthClient.Engine, context.Context, goAuthClient.RegisterRequest) (*goAuthClient.LoginResult, error) = (*goAuthClient.Engine).Register
	var _ func(*goAuthClient.Engine, context.Context, string) error = (*goAuthClient.Engine).SelectOrganization
	var _ func(*goAuthClient.Engine, context.Context, string, goAuthClient.CallOptions) (*goAuthClient.APIResponse, error) = (*goAuthClient.Engine).Call
	var _ func(*goAuthClient.Engine, context.Context) error = (*goAuthClient.Engine).Initialize
	var _ func(*goAuthClient.Engine, context.Context) error = (*goAuthClient.Engine).RefreshUser
	var _ func(*goAuthClient.Engine, context.Context) error = (*goAuthClient.Engine).Logout
	var _ func(*goAuthClient.Engine) (*goAuthClient.Flow, error) = (*goAuthClient.Engine).NewFlow
	var _ func(*goAuthClient.Flow, context.Context) (string, error) = (*goAuthClient.Flow).Begin
	var _ func(*goAuthClient.Flow, context.Context, string) error = (*goAuthClient.Flow).HandleCallback
	var _ func(*goAuthClient.Flow, context.Context) error = (*goAuthClient.Flow).Refresh
	var _ func(context.Context, string) context.Context = goAuthClient.WithRequestID
}
