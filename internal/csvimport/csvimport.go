// Package csvimport reads bulk question uploads.
//
// The expected layout is one question per row with a required header:
//
//	questionNo,question,option1,option2,option3,option4,correctOption
//
// Header names are matched case-insensitively with punctuation ignored, so the
// legacy "Q.NO" and "CORRECTANSOPTION" spellings are accepted as well.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"quiz-testing-service/internal/domain"
)

const (
	colQuestionNo    = "questionno"
	colQuestion      = "question"
	colCorrectOption = "correctoption"
)

var optionColumns = [domain.OptionCount]string{"option1", "option2", "option3", "option4"}

var headerAliases = map[string]string{
	"qno":              colQuestionNo,
	"no":               colQuestionNo,
	"questionnumber":   colQuestionNo,
	"questiontext":     colQuestion,
	"correctansoption": colCorrectOption,
	"correctanswer":    colCorrectOption,
}

// RowError reports a rejected row by its 1-based line in the file.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Report summarizes a parse.
type Report struct {
	TotalRows int        `json:"totalRows"`
	ValidRows int        `json:"validRows"`
	Errors    []RowError `json:"errors"`
}

// OK reports whether every data row was accepted.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Parse reads all rows from r. Header problems abort with an error; row
// problems are collected in the report and the row is skipped.
func Parse(r io.Reader) ([]domain.Question, *Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: missing header row", domain.ErrInvalidCSV)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %w", domain.ErrInvalidCSV, err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{Errors: make([]RowError, 0)}
	questions := make([]domain.Question, 0)
	seen := make(map[int]int)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, report, err
			}
			row := perr.Line
			report.TotalRows++
			report.Errors = append(report.Errors, RowError{Row: row, Error: fmt.Sprintf("csv parse error: %v", unwrapParse(err))})
			continue
		}
		row, _ := reader.FieldPos(0)
		if isRowEmpty(rec) {
			continue
		}
		report.TotalRows++

		q, err := parseRow(rec, index)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: row, Error: err.Error()})
			continue
		}
		if first, dup := seen[q.QuestionNo]; dup {
			report.Errors = append(report.Errors, RowError{Row: row, Error: fmt.Sprintf("questionNo %d already used on row %d", q.QuestionNo, first)})
			continue
		}
		seen[q.QuestionNo] = row
		questions = append(questions, q)
		report.ValidRows++
	}
	return questions, report, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		n := normalizeHeader(h)
		if alias, ok := headerAliases[n]; ok {
			n = alias
		}
		if n != "" {
			if _, dup := index[n]; !dup {
				index[n] = i
			}
		}
	}

	required := append([]string{colQuestionNo, colQuestion}, optionColumns[:]...)
	required = append(required, colCorrectOption)
	missing := make([]string, 0)
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", domain.ErrInvalidCSV, strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRow(rec []string, index map[string]int) (domain.Question, error) {
	var q domain.Question

	rawNo := cell(rec, index, colQuestionNo)
	no, err := strconv.Atoi(rawNo)
	if err != nil || no < 1 {
		return q, fmt.Errorf("questionNo must be a positive integer, got %q", rawNo)
	}
	q.QuestionNo = no

	q.Text = cell(rec, index, colQuestion)
	if q.Text == "" {
		return q, errors.New("question text is empty")
	}

	for i, col := range optionColumns {
		q.Options[i] = cell(rec, index, col)
		if q.Options[i] == "" {
			return q, fmt.Errorf("%s is empty", col)
		}
	}

	rawCorrect := cell(rec, index, colCorrectOption)
	correct, err := strconv.Atoi(rawCorrect)
	if err != nil || correct < 1 || correct > domain.OptionCount {
		return q, fmt.Errorf("correctOption must be between 1 and %d, got %q", domain.OptionCount, rawCorrect)
	}
	q.CorrectOption = correct
	return q, nil
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cell(rec []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isRowEmpty(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func unwrapParse(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) && perr.Err != nil {
		return perr.Err
	}
	return err
}
