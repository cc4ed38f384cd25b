package types

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxFeedbackLength is the maximum number of characters accepted in feedback_text.
const MaxFeedbackLength = 500

// Feedback types accepted by the proxy.
const (
	FeedbackTip           = "tip"
	FeedbackCommonMistake = "common_mistake"
	FeedbackTimeEstimate  = "time_estimate"
	FeedbackCostNote      = "cost_note"
)

// FeedbackTypes lists the accepted feedback types in display order.
var FeedbackTypes = []string{FeedbackTip, FeedbackCommonMistake, FeedbackTimeEstimate, FeedbackCostNote}

// slugPattern matches hyphen-separated runs of letters, marks and digits in
// any script, the alphabet slugs.Normalize produces.
var slugPattern = regexp.MustCompile(`^[\p{L}\p{M}\p{Nd}]+(?:-[\p{L}\p{M}\p{Nd}]+)*$`)

// FeedbackRequest is the body accepted by the feedback proxy.
type FeedbackRequest struct {
	PermitSlug   string `json:"permit_slug" validate:"required,max=200,slug"`
	FeedbackType string `json:"feedback_type" validate:"required,oneof=tip common_mistake time_estimate cost_note"`
	FeedbackText string `json:"feedback_text" validate:"required,max=500"`
}

// FeedbackResponse is returned when the tracker accepted the submission.
type FeedbackResponse struct {
	Success     bool   `json:"success"`
	IssueNumber int    `json:"issue_number"`
	IssueURL    string `json:"issue_url"`
}

// ErrorResponse is the body of every proxy error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewFeedbackValidator returns a validator with the "slug" tag registered.
// Field errors are reported under their JSON names.
func NewFeedbackValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		slug := fl.Field().String()
		return slugPattern.MatchString(slug) && strings.ToLower(slug) == slug
	})
	return v
}

// Validate validates the FeedbackRequest using the validator.
func (r *FeedbackRequest) Validate() error {
	return NewFeedbackValidator().Struct(r)
}
