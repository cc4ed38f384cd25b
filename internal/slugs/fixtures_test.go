package slugs

import (
	"time"

	"github.com/jonathan/permitindex/internal/types"
)

func day(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func record(agency, request, location, date, related string, line int) types.PermitRecord {
	return types.PermitRecord{
		AgencyShort:           agency,
		RequestType:           request,
		LocationApplicability: location,
		DateExtracted:         day(date),
		RelatedPages:          related,
		SourceFile:            "data/permits.csv",
		Line:                  line,
	}
}
