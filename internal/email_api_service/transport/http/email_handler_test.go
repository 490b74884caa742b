package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/swiftnotify/golang_services/internal/email_api_service/app"
	transport_http "github.com/swiftnotify/golang_services/internal/email_api_service/transport/http"
	"github.com/swiftnotify/golang_services/internal/email_service/domain"
)

type MockEmailRepository struct {
	mock.Mock
}

func (m *MockEmailRepository) Create(ctx context.Context, msg *domain.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockEmailRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmailMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailMessage), args.Error(1)
}

func (m *MockEmailRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.EmailStatus, errorMessage *string, sentAt *time.Time) error {
	args := m.Called(ctx, id, expected, next, errorMessage, sentAt)
	return args.Error(0)
}

func (m *MockEmailRepository) List(ctx context.Context, limit, offset int) ([]*domain.EmailMessage, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EmailMessage), args.Error(1)
}

type MockJobPublisher struct {
	mock.Mock
}

func (m *MockJobPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func setupHandlerTest(t *testing.T) (*chi.Mux, *MockEmailRepository, *MockJobPublisher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockEmailRepository)
	mockPublisher := new(MockJobPublisher)

	svc := app.NewEmailAppService(mockRepo, mockPublisher, "emails.send", logger)
	handler := transport_http.NewEmailHandler(svc, validator.New(), logger)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, mockRepo, mockPublisher
}

func TestEmailHandler_SendEmail_Accepted(t *testing.T) {
	router, mockRepo, mockPublisher := setupHandlerTest(t)

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	mockPublisher.On("Publish", mock.Anything, "emails.send", mock.Anything).Return(nil).Once()

	body, _ := json.Marshal(map[string]string{
		"user_id":  uuid.NewString(),
		"to_email": "user@example.com",
		"subject":  "Welcome to our app!",
		"body":     "<h1>Welcome!</h1><p>Thanks for signing up.</p>",
	})
	req := httptest.NewRequest(http.MethodPost, "/emails", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp transport_http.StandardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "queued", data["status"])
	assert.Equal(t, "user@example.com", data["to_email"])
	assert.NotEmpty(t, data["id"])

	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestEmailHandler_SendEmail_InvalidJSON(t *testing.T) {
	router, mockRepo, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodPost, "/emails", bytes.NewReader([]byte(`{not json`)))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestEmailHandler_SendEmail_ValidationFailure(t *testing.T) {
	router, mockRepo, _ := setupHandlerTest(t)

	body, _ := json.Marshal(map[string]string{
		"user_id":  uuid.NewString(),
		"to_email": "not-an-email",
		"subject":  "s",
		"body":     "b",
	})
	req := httptest.NewRequest(http.MethodPost, "/emails", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestEmailHandler_SendEmail_PublishFailure(t *testing.T) {
	router, mockRepo, mockPublisher := setupHandlerTest(t)

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	mockPublisher.On("Publish", mock.Anything, "emails.send", mock.Anything).
		Return(assert.AnError).Once()

	body, _ := json.Marshal(map[string]string{
		"user_id":  uuid.NewString(),
		"to_email": "user@example.com",
		"subject":  "s",
		"body":     "b",
	})
	req := httptest.NewRequest(http.MethodPost, "/emails", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEmailHandler_GetEmail_Found(t *testing.T) {
	router, mockRepo, _ := setupHandlerTest(t)

	emailID := uuid.New()
	sentAt := time.Now().UTC()
	msg := &domain.EmailMessage{
		ID:        emailID,
		UserID:    uuid.New(),
		Recipient: "user@example.com",
		Subject:   "s",
		Body:      "b",
		Status:    domain.StatusSent,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		SentAt:    &sentAt,
	}
	mockRepo.On("GetByID", mock.Anything, emailID).Return(msg, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/emails/"+emailID.String(), nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp transport_http.StandardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sent", data["status"])
	assert.NotEmpty(t, data["sent_at"])
}

func TestEmailHandler_GetEmail_NotFound(t *testing.T) {
	router, mockRepo, _ := setupHandlerTest(t)

	emailID := uuid.New()
	mockRepo.On("GetByID", mock.Anything, emailID).Return(nil, domain.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/emails/"+emailID.String(), nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEmailHandler_GetEmail_BadID(t *testing.T) {
	router, mockRepo, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/emails/not-a-uuid", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestEmailHandler_ListEmails(t *testing.T) {
	router, mockRepo, _ := setupHandlerTest(t)

	msgs := []*domain.EmailMessage{
		{ID: uuid.New(), UserID: uuid.New(), Recipient: "a@x.com", Status: domain.StatusQueued, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), UserID: uuid.New(), Recipient: "b@x.com", Status: domain.StatusFailed, CreatedAt: time.Now().UTC()},
	}
	mockRepo.On("List", mock.Anything, 2, 2).Return(msgs, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/emails?page=2&limit=2", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp transport_http.StandardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}
