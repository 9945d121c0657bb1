package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-auth/internal/dto/request"
	"marketplace-auth/internal/dto/response"
	"marketplace-auth/internal/usecase"
	"marketplace-auth/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*response.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*response.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) FederatedLogin(ctx context.Context, req *request.FederatedLoginRequest) (*response.AuthResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*response.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) RequestPasswordReset(ctx context.Context, req *request.ForgotPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthService) VerifyResetCode(ctx context.Context, req *request.VerifyResetCodeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	args := m.Called(ctx, userID)
	resp, _ := args.Get(0).(*response.UserResponse)
	return resp, args.Error(1)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	args := m.Called(ctx, userID, req)
	resp, _ := args.Get(0).(*response.UserResponse)
	return resp, args.Error(1)
}

func newTestHandler(exposeErrors bool) (*Handler, *mockAuthService, *mockUserService) {
	authSvc := &mockAuthService{}
	userSvc := &mockUserService{}
	h := NewHandler(&usecase.Service{Auth: authSvc, User: userSvc}, exposeErrors, zap.NewNop())
	return h, authSvc, userSvc
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, utils.Response) {
	t.Helper()

	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	var envelope utils.Response
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&envelope))
	return rec, envelope
}

func TestAuthHandler_Register(t *testing.T) {
	h, authSvc, _ := newTestHandler(false)

	authSvc.On("Register", mock.Anything, &request.RegisterRequest{
		Name: "Dana", Email: "dana@example.com", Password: "secret1", Phone: "0812345678",
	}).Return(&response.AuthResponse{
		Token:     "signed",
		ExpiresAt: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
		User:      response.UserResponse{ID: "u-1", Email: "dana@example.com"},
	}, nil)

	rec, envelope := doJSON(t, h.Auth.Register, http.MethodPost,
		`{"name":"Dana","email":"dana@example.com","password":"secret1","phone":"0812345678"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, envelope.Status)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, "signed", data["token"])
	authSvc.AssertExpectations(t)
}

func TestAuthHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "validation",
			err:         &usecase.Error{Kind: usecase.KindValidation, Message: usecase.MsgValidationFailed, Fields: map[string]string{"email": "Invalid email format"}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: usecase.MsgValidationFailed,
		},
		{
			name:        "conflict",
			err:         &usecase.Error{Kind: usecase.KindConflict, Message: usecase.MsgEmailTaken},
			wantStatus:  http.StatusBadRequest,
			wantMessage: usecase.MsgEmailTaken,
		},
		{
			name:        "auth",
			err:         &usecase.Error{Kind: usecase.KindAuth, Message: usecase.MsgInvalidCredentials, Err: errors.New("password mismatch")},
			wantStatus:  http.StatusBadRequest,
			wantMessage: usecase.MsgInvalidCredentials,
		},
		{
			name:        "not found",
			err:         &usecase.Error{Kind: usecase.KindNotFound, Message: usecase.MsgUserNotFound},
			wantStatus:  http.StatusNotFound,
			wantMessage: usecase.MsgUserNotFound,
		},
		{
			name:        "server",
			err:         &usecase.Error{Kind: usecase.KindServer, Message: usecase.MsgServerError, Err: errors.New("connection refused")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgServerError,
		},
		{
			name:        "unclassified",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: usecase.MsgServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, authSvc, _ := newTestHandler(false)
			authSvc.On("Login", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec, envelope := doJSON(t, h.Auth.Login, http.MethodPost, `{"email":"dana@example.com","password":"x"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, envelope.Status)
			assert.Equal(t, tt.wantMessage, envelope.Message)
			assert.NotContains(t, rec.Body.String(), "password mismatch")
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestAuthHandler_ValidationFields(t *testing.T) {
	h, authSvc, _ := newTestHandler(false)
	authSvc.On("RequestPasswordReset", mock.Anything, mock.Anything).Return(
		&usecase.Error{Kind: usecase.KindValidation, Message: usecase.MsgValidationFailed, Fields: map[string]string{"email": "This field is required"}})

	rec, envelope := doJSON(t, h.Auth.ForgotPassword, http.MethodPost, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"email": "This field is required"}, envelope.Errors)
}

func TestAuthHandler_ServerErrorDetailInDevelopment(t *testing.T) {
	h, authSvc, _ := newTestHandler(true)
	authSvc.On("ResetPassword", mock.Anything, mock.Anything).Return(
		&usecase.Error{Kind: usecase.KindServer, Message: usecase.MsgServerError, Err: errors.New("connection refused")})

	rec, envelope := doJSON(t, h.Auth.ResetPassword, http.MethodPost,
		`{"email":"dana@example.com","code":"123456","newPassword":"brand-new"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "connection refused", envelope.Errors)
}

func TestAuthHandler_MalformedBody(t *testing.T) {
	h, authSvc, _ := newTestHandler(false)

	rec, envelope := doJSON(t, h.Auth.Login, http.MethodPost, `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", envelope.Message)
	authSvc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestAuthHandler_GoogleLogin(t *testing.T) {
	h, authSvc, _ := newTestHandler(false)

	rec, envelope := doJSON(t, h.Auth.GoogleLogin, http.MethodPost, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No credential provided", envelope.Message)

	authSvc.On("FederatedLogin", mock.Anything, &request.FederatedLoginRequest{Credential: "id-token"}).
		Return(&response.AuthResponse{Token: "signed"}, nil)

	rec, envelope = doJSON(t, h.Auth.GoogleLogin, http.MethodPost, `{"credential":"id-token"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signed", envelope.Data.(map[string]any)["token"])
}

func TestAuthHandler_ResetCodeEndpoints(t *testing.T) {
	h, authSvc, _ := newTestHandler(false)
	authSvc.On("RequestPasswordReset", mock.Anything, &request.ForgotPasswordRequest{Email: "dana@example.com"}).Return(nil)
	authSvc.On("VerifyResetCode", mock.Anything, &request.VerifyResetCodeRequest{Email: "dana@example.com", Code: "123456"}).Return(nil)

	rec, envelope := doJSON(t, h.Auth.ForgotPassword, http.MethodPost, `{"email":"dana@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reset code sent to email", envelope.Message)

	rec, envelope = doJSON(t, h.Auth.VerifyResetCode, http.MethodPost, `{"email":"dana@example.com","code":"123456"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reset code verified", envelope.Message)
}

func TestUserHandler_RequiresUserContext(t *testing.T) {
	h, _, _ := newTestHandler(false)

	rec, _ := doJSON(t, h.User.GetProfile, http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	h, _, userSvc := newTestHandler(false)
	userID := uuid.New()
	name := "Dana Putri"

	userSvc.On("UpdateProfile", mock.Anything, userID, &request.UpdateProfileRequest{Name: &name}).
		Return(&response.UserResponse{ID: userID.String(), Name: name}, nil)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"Dana Putri"}`))
	req = req.WithContext(utils.SetUserContext(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.User.UpdateProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	user := envelope.Data.(map[string]any)["user"].(map[string]any)
	assert.Equal(t, name, user["name"])
	userSvc.AssertExpectations(t)
}

func TestUserHandler_UpdateProfile_Empty(t *testing.T) {
	h, _, userSvc := newTestHandler(false)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`))
	req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	h.User.UpdateProfile(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No fields to update")
	userSvc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}
