// Package schemas embeds the JSON Schemas for published artifacts and request bodies.
package schemas

import _ "embed"

// PermitExport is the schema permits.json must satisfy.
//
//go:embed permit_export.schema.json
var PermitExport string

// FeedbackRequest describes the body accepted by the feedback proxy.
//
//go:embed feedback_request.schema.json
var FeedbackRequest string
