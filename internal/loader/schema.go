// Package loader reads the permit dataset from one or more CSV files.
package loader

// Column names of the dataset.
const (
	ColAgencyShort            = "agency_short"
	ColRequestType            = "request_type"
	ColCost                   = "cost"
	ColHowToDescription       = "how_to_description"
	ColPaymentFormURL         = "payment_form_url"
	ColEstimatedMonthlyVolume = "estimated_monthly_volume"
	ColDeadlineWindow         = "deadline_window"
	ColEffortHours            = "effort_hours"
	ColOnlineAvailable        = "online_available"
	ColAPIAvailable           = "api_available"
	ColMCPAvailable           = "mcp_available"
	ColRelatedPages           = "related_pages"
	ColDateExtracted          = "date_extracted"
	ColSourceURL              = "source_url"
	ColAgencyFull             = "agency_full"
	ColEligibility            = "eligibility"
	ColLocationApplicability  = "location_applicability"
	ColDocumentRequirements   = "document_requirements"
)

// Column describes one dataset column.
type Column struct {
	Name     string
	Required bool
}

// Schema lists every known column in dataset order.
var Schema = []Column{
	{ColAgencyShort, true},
	{ColRequestType, true},
	{ColCost, true},
	{ColHowToDescription, true},
	{ColPaymentFormURL, false},
	{ColEstimatedMonthlyVolume, true},
	{ColDeadlineWindow, false},
	{ColEffortHours, true},
	{ColOnlineAvailable, true},
	{ColAPIAvailable, true},
	{ColMCPAvailable, true},
	{ColRelatedPages, false},
	{ColDateExtracted, true},
	{ColSourceURL, false},
	{ColAgencyFull, true},
	{ColEligibility, true},
	{ColLocationApplicability, true},
	{ColDocumentRequirements, true},
}

func knownColumn(name string) bool {
	for _, c := range Schema {
		if c.Name == name {
			return true
		}
	}
	return false
}
