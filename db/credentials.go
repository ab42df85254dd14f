package db

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"rubric-report-go/models"
)

// ErrMissingColumns is returned when the token table lacks Token or URL
var ErrMissingColumns = errors.New("token table must have Token and URL columns")

var validate = validator.New()

// CredentialImporter reads the uploaded token table
type CredentialImporter struct {
	logger *zap.Logger
}

// NewCredentialImporter creates a CredentialImporter
func NewCredentialImporter(logger *zap.Logger) *CredentialImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialImporter{logger: logger}
}

// Import parses a .csv or .xlsx token table, chosen by filename extension.
// Rows without a valid Token and URL are dropped and repeated (Token, URL)
// pairs keep their first occurrence.
func (im *CredentialImporter) Import(file io.Reader, filename string) ([]models.Credential, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = im.readExcel(file)
	case ".csv", "":
		rows, err = readCSV(file)
	default:
		return nil, errors.Errorf("unsupported token file type %q", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return im.parseRows(rows)
}

func readCSV(file io.Reader) ([][]string, error) {
	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv")
	}
	return rows, nil
}

func (im *CredentialImporter) readExcel(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open excel file")
	}
	defer func() {
		if err := f.Close(); err != nil {
			im.logger.Warn("close excel file", zap.Error(err))
		}
	}()

	// Tokens are read from the first sheet
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get rows from sheet %s", sheetName)
	}
	return rows, nil
}

func (im *CredentialImporter) parseRows(rows [][]string) ([]models.Credential, error) {
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}
	tokenCol, urlCol, instCol := -1, -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "token":
			tokenCol = i
		case "url":
			urlCol = i
		case "institution":
			instCol = i
		}
	}
	if tokenCol < 0 || urlCol < 0 {
		return nil, ErrMissingColumns
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	type pair struct{ token, url string }
	seen := make(map[pair]bool)
	creds := []models.Credential{}
	for i, row := range rows[1:] {
		cred := models.Credential{
			Token:       cell(row, tokenCol),
			URL:         cell(row, urlCol),
			Institution: cell(row, instCol),
		}
		if err := validate.Struct(cred); err != nil {
			im.logger.Warn("skipping token row", zap.Int("row", i+2), zap.Error(err))
			continue
		}
		k := pair{cred.Token, cred.URL}
		if seen[k] {
			continue
		}
		seen[k] = true
		if cred.Institution == "" {
			cred.Institution = "Unknown"
		}
		creds = append(creds, cred)
	}
	im.logger.Info("tokens loaded", zap.Int("count", len(creds)))
	return creds, nil
}
