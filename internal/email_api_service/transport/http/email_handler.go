package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/swiftnotify/golang_services/internal/email_api_service/app"
	"github.com/swiftnotify/golang_services/internal/email_service/domain"
)

// EmailHandler exposes the enqueue and inspection endpoints for email messages.
type EmailHandler struct {
	emailService *app.EmailAppService
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewEmailHandler(emailService *app.EmailAppService, validate *validator.Validate, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{
		emailService: emailService,
		validate:     validate,
		logger:       logger.With("handler", "email"),
	}
}

// RegisterRoutes registers email routes with the given router.
func (h *EmailHandler) RegisterRoutes(r chi.Router) {
	r.Post("/emails", h.handleSendEmail)
	r.Get("/emails", h.handleListEmails)
	r.Get("/emails/{emailID}", h.handleGetEmail)
}

func (h *EmailHandler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode send email request", "error", err)
		h.jsonError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Send email request failed validation", "error", err)
		h.jsonError(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.jsonError(w, "Invalid user_id format", http.StatusBadRequest)
		return
	}

	msg, err := h.emailService.EnqueueEmail(ctx, userID, req.ToEmail, req.Subject, req.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to enqueue email", "error", err, "recipient", req.ToEmail)
		h.jsonError(w, "Failed to queue email", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusAccepted, StandardResponse{
		Success: true,
		Data:    toEmailResponse(msg),
		Message: "Email queued for delivery",
	})
}

func (h *EmailHandler) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	emailID, err := uuid.Parse(chi.URLParam(r, "emailID"))
	if err != nil {
		h.jsonError(w, "Invalid email ID format", http.StatusBadRequest)
		return
	}

	msg, err := h.emailService.GetEmail(ctx, emailID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.jsonError(w, "Email not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "Failed to fetch email", "error", err, "email_id", emailID)
		h.jsonError(w, "Failed to retrieve email", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    toEmailResponse(msg),
		Message: "OK",
	})
}

func (h *EmailHandler) handleListEmails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	msgs, err := h.emailService.ListEmails(ctx, page, limit)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list emails", "error", err)
		h.jsonError(w, "Failed to list emails", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    toEmailResponses(msgs),
		Message: "OK",
	})
}

func (h *EmailHandler) respondJSON(w http.ResponseWriter, status int, body StandardResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response body", "error", err)
	}
}

func (h *EmailHandler) jsonError(w http.ResponseWriter, message string, status int) {
	h.respondJSON(w, status, StandardResponse{
		Success: false,
		Error:   &message,
		Message: message,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
