package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/permitindex/internal/logging"
	"github.com/jonathan/permitindex/internal/types"
)

// maxBodyBytes bounds the request body; a valid submission is well under 1 KiB.
const maxBodyBytes = 8 << 10

var typeLabels = map[string]string{
	types.FeedbackTip:           "Tip",
	types.FeedbackCommonMistake: "Common mistake",
	types.FeedbackTimeEstimate:  "Time estimate",
	types.FeedbackCostNote:      "Cost note",
}

// HandlerOptions configures a Handler
type HandlerOptions struct {
	AllowedOrigin string // Access-Control-Allow-Origin value, "*" when empty
	SiteURL       string // optional; links the issue back to the permit page
	Log           *logging.Logger
	Metrics       *Metrics
}

// Handler serves the feedback endpoint. All fields are set at construction
// and only read afterwards.
type Handler struct {
	tracker       Tracker
	validate      *validator.Validate
	allowedOrigin string
	siteURL       string
	log           *logging.Logger
	metrics       *Metrics
}

// NewHandler creates a Handler forwarding to tracker.
func NewHandler(tracker Tracker, opts HandlerOptions) *Handler {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	return &Handler{
		tracker:       tracker,
		validate:      types.NewFeedbackValidator(),
		allowedOrigin: opts.AllowedOrigin,
		siteURL:       strings.TrimRight(opts.SiteURL, "/"),
		log:           opts.Log,
		metrics:       opts.Metrics,
	}
}

// ServeHTTP answers OPTIONS with a CORS preflight, forwards POST and rejects
// every other method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		h.metrics.observe(OutcomePreflight)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		h.handleSubmit(w, r)
	default:
		h.metrics.observe(OutcomeMethodNotAllowed)
		w.Header().Set("Allow", "POST, OPTIONS")
		jsonResponse(w, h.log, http.StatusMethodNotAllowed, types.ErrorResponse{Error: "Method not allowed"})
	}
}

func (h *Handler) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "86400")
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)
	log := h.log.With("request_id", requestID)

	req, err := h.decode(w, r)
	if err != nil {
		h.fail(w, log, err)
		return
	}

	start := time.Now()
	result, err := h.tracker.CreateIssue(r.Context(), h.buildIssue(req))
	h.metrics.observeLatency(time.Since(start).Seconds())
	if err != nil {
		h.fail(w, log, err)
		return
	}

	h.metrics.observe(OutcomeAccepted)
	log.Info("feedback forwarded", "slug", req.PermitSlug, "type", req.FeedbackType, "issue", result.Number)
	jsonResponse(w, log, http.StatusOK, types.FeedbackResponse{
		Success:     true,
		IssueNumber: result.Number,
		IssueURL:    result.URL,
	})
}

// decode reads and validates the body. The tracker is never called for a
// request that fails here.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*types.FeedbackRequest, error) {
	var req types.FeedbackRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &ValidationError{Field: "body", Message: "request body too large"}
		}
		return nil, &ValidationError{Field: "body", Message: "invalid JSON"}
	}

	// The length bound applies to the text as submitted, padding included.
	if n := utf8.RuneCountInString(req.FeedbackText); n > types.MaxFeedbackLength {
		return nil, &ValidationError{
			Field:   "feedback_text",
			Message: fmt.Sprintf("must be at most %d characters", types.MaxFeedbackLength),
		}
	}

	req.PermitSlug = strings.TrimSpace(req.PermitSlug)
	req.FeedbackType = strings.TrimSpace(req.FeedbackType)
	req.FeedbackText = strings.TrimSpace(req.FeedbackText)

	if err := h.validate.Struct(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, validationFromField(fieldErrs[0])
		}
		return nil, err
	}
	return &req, nil
}

func validationFromField(fe validator.FieldError) *ValidationError {
	msg := "is invalid"
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "max":
		msg = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		msg = "must be one of: " + strings.Join(types.FeedbackTypes, ", ")
	case "slug":
		msg = "must be a lowercase slug"
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

func (h *Handler) buildIssue(req *types.FeedbackRequest) Issue {
	label := typeLabels[req.FeedbackType]

	var body strings.Builder
	fmt.Fprintf(&body, "**Permit:** `%s`\n", req.PermitSlug)
	fmt.Fprintf(&body, "**Type:** %s\n", label)
	if h.siteURL != "" {
		fmt.Fprintf(&body, "**Page:** %s/%s/\n", h.siteURL, req.PermitSlug)
	}
	body.WriteString("\n")
	for _, line := range strings.Split(req.FeedbackText, "\n") {
		body.WriteString("> " + line + "\n")
	}
	body.WriteString("\n_Submitted from the permit page feedback form._\n")

	return Issue{
		Title:  fmt.Sprintf("[%s] %s", label, req.PermitSlug),
		Body:   body.String(),
		Labels: []string{"feedback", req.FeedbackType},
	}
}

func (h *Handler) fail(w http.ResponseWriter, log *logging.Logger, err error) {
	status := HTTPStatus(err)

	var valErr *ValidationError
	var upErr *UpstreamError
	switch {
	case errors.As(err, &valErr):
		h.metrics.observe(OutcomeInvalid)
		log.Info("feedback rejected", "field", valErr.Field, "reason", valErr.Message)
		jsonResponse(w, log, status, types.ErrorResponse{
			Error:   "Invalid feedback",
			Details: fmt.Sprintf("%s %s", valErr.Field, valErr.Message),
		})
	case errors.As(err, &upErr):
		h.metrics.observe(OutcomeUpstreamError)
		log.Warn("tracker call failed", "status", upErr.Status, "error", err)
		jsonResponse(w, log, status, types.ErrorResponse{
			Error:   "Failed to create issue",
			Details: upErr.Message,
		})
	default:
		h.metrics.observe(OutcomeInternalError)
		log.Error("feedback failed", "error", err)
		jsonResponse(w, log, status, types.ErrorResponse{Error: "Internal server error"})
	}
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, log *logging.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("error encoding JSON response", "error", err)
	}
}
