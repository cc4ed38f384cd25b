package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jonathan/permitindex/internal/logging"
	"github.com/jonathan/permitindex/internal/types"
)

// Error represents a failure to locate or read a dataset file.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("load error for %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Loader reads permit records from CSV files.
type Loader struct {
	log *logging.Logger
}

// New creates a Loader. A nil logger discards warnings.
func New(log *logging.Logger) *Loader {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{log: log}
}

// Load reads every CSV file matched by pattern (a file path or a doublestar glob
// such as "data/**/*.csv"). Files are read in lexicographic order. Composite keys
// must be unique across all files.
func (l *Loader) Load(ctx context.Context, pattern string) ([]types.PermitRecord, error) {
	files, err := ResolveFiles(pattern)
	if err != nil {
		return nil, err
	}

	var records []types.PermitRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		l.log.Info("loaded dataset file", "file", path, "records", len(recs))
		records = append(records, recs...)
	}

	if err := CheckDuplicateKeys(records); err != nil {
		return nil, err
	}
	return records, nil
}

// ResolveFiles expands pattern into a sorted list of files.
func ResolveFiles(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, &Error{Path: pattern, Message: "no dataset path given"}
	}

	if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
		return []string{pattern}, nil
	} else if err == nil && info.IsDir() {
		pattern = filepath.Join(pattern, "**", "*.csv")
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, &Error{Path: pattern, Message: "invalid glob pattern", Cause: err}
	}

	var files []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, &Error{Path: pattern, Message: "no CSV files found"}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) loadFile(path string) ([]types.PermitRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to open file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	recs, extra, err := Parse(f, path)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		l.log.Warn("ignoring unknown columns", "file", path, "columns", strings.Join(extra, ","))
	}
	return recs, nil
}

// Parse reads one CSV stream. It returns the records and the names of any columns
// not in Schema. Every problem is reported as a *types.DataError naming file and line.
func Parse(r io.Reader, name string) ([]types.PermitRecord, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &types.DataError{
			Kind:    types.KindMissingColumn,
			Message: "file is empty",
			Rows:    []types.RowRef{{File: name, Line: 1}},
		}
	}
	if err != nil {
		return nil, nil, &Error{Path: name, Message: "failed to read header", Cause: err}
	}

	cols := make(map[string]int, len(header))
	var extra []string
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
		if !knownColumn(h) && h != "" {
			extra = append(extra, h)
		}
	}

	var missing []string
	for _, c := range Schema {
		if _, ok := cols[c.Name]; c.Required && !ok {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return nil, extra, &types.DataError{
			Kind:    types.KindMissingColumn,
			Message: strings.Join(missing, ", "),
			Rows:    []types.RowRef{{File: name, Line: 1}},
		}
	}

	var records []types.PermitRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, extra, &Error{Path: name, Message: "malformed CSV", Cause: err}
		}
		line, _ := cr.FieldPos(0)
		if blankRow(row) {
			continue
		}

		rec, err := buildRecord(rowReader{cols: cols, row: row}, name, line)
		if err != nil {
			return nil, extra, err
		}
		records = append(records, rec)
	}
	return records, extra, nil
}

type rowReader struct {
	cols map[string]int
	row  []string
}

// get returns the raw cell value, or "" when the column is absent or short.
func (r rowReader) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return r.row[i]
}

func buildRecord(r rowReader, file string, line int) (types.PermitRecord, error) {
	ref := types.RowRef{File: file, Line: line, Key: fmt.Sprintf("(%q, %q)", r.get(ColAgencyShort), r.get(ColRequestType))}

	for _, c := range Schema {
		if c.Required && strings.TrimSpace(r.get(c.Name)) == "" {
			return types.PermitRecord{}, &types.DataError{
				Kind:    types.KindMissingField,
				Message: c.Name,
				Rows:    []types.RowRef{ref},
			}
		}
	}

	online, err := parseYesNo(r, ColOnlineAvailable, ref)
	if err != nil {
		return types.PermitRecord{}, err
	}
	api, err := parseYesNo(r, ColAPIAvailable, ref)
	if err != nil {
		return types.PermitRecord{}, err
	}
	mcp, err := parseYesNo(r, ColMCPAvailable, ref)
	if err != nil {
		return types.PermitRecord{}, err
	}

	date, err := time.Parse(types.DateLayout, strings.TrimSpace(r.get(ColDateExtracted)))
	if err != nil {
		return types.PermitRecord{}, &types.DataError{
			Kind:    types.KindInvalidValue,
			Message: fmt.Sprintf("%s must be YYYY-MM-DD, got %q", ColDateExtracted, r.get(ColDateExtracted)),
			Rows:    []types.RowRef{ref},
			Cause:   err,
		}
	}

	return types.PermitRecord{
		AgencyShort:            r.get(ColAgencyShort),
		RequestType:            r.get(ColRequestType),
		Cost:                   strings.TrimSpace(r.get(ColCost)),
		HowToDescription:       strings.TrimSpace(r.get(ColHowToDescription)),
		PaymentFormURL:         strings.TrimSpace(r.get(ColPaymentFormURL)),
		EstimatedMonthlyVolume: strings.TrimSpace(r.get(ColEstimatedMonthlyVolume)),
		DeadlineWindow:         strings.TrimSpace(r.get(ColDeadlineWindow)),
		EffortHours:            strings.TrimSpace(r.get(ColEffortHours)),
		OnlineAvailable:        online,
		APIAvailable:           api,
		MCPAvailable:           mcp,
		RelatedPages:           strings.TrimSpace(r.get(ColRelatedPages)),
		DateExtracted:          date,
		SourceURL:              strings.TrimSpace(r.get(ColSourceURL)),
		AgencyFull:             strings.TrimSpace(r.get(ColAgencyFull)),
		Eligibility:            strings.TrimSpace(r.get(ColEligibility)),
		LocationApplicability:  strings.TrimSpace(r.get(ColLocationApplicability)),
		DocumentRequirements:   strings.TrimSpace(r.get(ColDocumentRequirements)),
		SourceFile:             file,
		Line:                   line,
	}, nil
}

func parseYesNo(r rowReader, col string, ref types.RowRef) (bool, error) {
	switch v := strings.TrimSpace(r.get(col)); v {
	case "Yes":
		return true, nil
	case "No":
		return false, nil
	default:
		return false, &types.DataError{
			Kind:    types.KindInvalidValue,
			Message: fmt.Sprintf("%s must be Yes or No, got %q", col, v),
			Rows:    []types.RowRef{ref},
		}
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// CheckDuplicateKeys rejects records whose composite keys are byte-identical.
// Keys that only collide after normalisation are caught later by slug assignment.
func CheckDuplicateKeys(records []types.PermitRecord) error {
	seen := make(map[[2]string]int, len(records))
	for i := range records {
		k := [2]string{records[i].AgencyShort, records[i].RequestType}
		if j, ok := seen[k]; ok {
			return &types.DataError{
				Kind:    types.KindDuplicateKey,
				Message: fmt.Sprintf("composite key %s appears more than once", records[i].Key()),
				Rows:    []types.RowRef{types.RefOf(&records[j]), types.RefOf(&records[i])},
			}
		}
		seen[k] = i
	}
	return nil
}
