package listing

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Format selects how rows are printed.
type Format string

// Supported output formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCount Format = "count"
)

// Field names accepted by --fields.
const (
	FieldKey       = "key"
	FieldName      = "name"
	FieldRef       = "ref"
	FieldPath      = "path"
	FieldGitHubURL = "github_url"
	FieldPrimary   = "is_primary"
)

const (
	tableMinimumWidthConstant = 0
	tableTabWidthConstant     = 4
	tablePaddingConstant      = 2
	tablePaddingCharacter     = ' '
	tableCellSeparator        = "\t"
	lineSeparator             = "\n"
	unknownFormatMessage      = "unsupported output format"
	unknownFormatTemplate     = "%w: %s"
	encodeErrorTemplate       = "unable to encode %s output: %w"
)

// ErrUnknownFormat indicates a format outside the supported set.
var ErrUnknownFormat = errors.New(unknownFormatMessage)

// DefaultFields lists the columns printed when none are requested.
func DefaultFields() []string {
	return []string{FieldName, FieldRef, FieldPath}
}

// FormatValues lists the supported formats.
func FormatValues() []string {
	return []string{string(FormatTable), string(FormatCSV), string(FormatJSON), string(FormatYAML), string(FormatCount)}
}

// FieldValues lists the supported fields.
func FieldValues() []string {
	return []string{FieldKey, FieldName, FieldRef, FieldPath, FieldGitHubURL, FieldPrimary}
}

// Renderer prints rows in one format.
type Renderer struct {
	Format    Format
	Fields    []string
	Highlight *color.Color
}

// Render writes rows to output.
func (renderer Renderer) Render(output io.Writer, rows []Row) error {
	fields := renderer.Fields
	if len(fields) == 0 {
		fields = DefaultFields()
	}

	switch renderer.Format {
	case FormatTable, "":
		return renderer.renderTable(output, rows, fields)
	case FormatCSV:
		return renderCSV(output, rows, fields)
	case FormatJSON:
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		if encodeError := encoder.Encode(selectFields(rows, fields)); encodeError != nil {
			return fmt.Errorf(encodeErrorTemplate, FormatJSON, encodeError)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(output)
		encoder.SetIndent(2)
		if encodeError := encoder.Encode(selectFields(rows, fields)); encodeError != nil {
			return fmt.Errorf(encodeErrorTemplate, FormatYAML, encodeError)
		}
		return encoder.Close()
	case FormatCount:
		_, writeError := fmt.Fprintln(output, len(rows))
		return writeError
	default:
		return fmt.Errorf(unknownFormatTemplate, ErrUnknownFormat, renderer.Format)
	}
}

func (renderer Renderer) renderTable(output io.Writer, rows []Row, fields []string) error {
	var buffer bytes.Buffer
	tableWriter := tabwriter.NewWriter(&buffer, tableMinimumWidthConstant, tableTabWidthConstant, tablePaddingConstant, tablePaddingCharacter, 0)

	header := lo.Map(fields, func(field string, _ int) string {
		return strings.ToUpper(field)
	})
	fmt.Fprintln(tableWriter, strings.Join(header, tableCellSeparator))
	for _, row := range rows {
		fmt.Fprintln(tableWriter, strings.Join(rowValues(row, fields), tableCellSeparator))
	}
	if flushError := tableWriter.Flush(); flushError != nil {
		return flushError
	}

	lines := strings.Split(strings.TrimSuffix(buffer.String(), lineSeparator), lineSeparator)
	for lineIndex, line := range lines {
		rowIndex := lineIndex - 1
		if rowIndex >= 0 && rows[rowIndex].IsPrimary && renderer.Highlight != nil {
			line = renderer.Highlight.Sprint(line)
		}
		if _, writeError := fmt.Fprintln(output, line); writeError != nil {
			return writeError
		}
	}
	return nil
}

func renderCSV(output io.Writer, rows []Row, fields []string) error {
	csvWriter := csv.NewWriter(output)
	records := append([][]string{fields}, lo.Map(rows, func(row Row, _ int) []string {
		return rowValues(row, fields)
	})...)
	if writeError := csvWriter.WriteAll(records); writeError != nil {
		return fmt.Errorf(encodeErrorTemplate, FormatCSV, writeError)
	}
	return nil
}

func selectFields(rows []Row, fields []string) []map[string]string {
	return lo.Map(rows, func(row Row, _ int) map[string]string {
		return lo.SliceToMap(fields, func(field string) (string, string) {
			return field, fieldValue(row, field)
		})
	})
}

func rowValues(row Row, fields []string) []string {
	return lo.Map(fields, func(field string, _ int) string {
		return fieldValue(row, field)
	})
}

func fieldValue(row Row, field string) string {
	switch field {
	case FieldKey:
		return row.Key
	case FieldName:
		return row.Name
	case FieldRef:
		return row.HeadRef
	case FieldPath:
		return row.Path
	case FieldGitHubURL:
		return row.GitHubURL
	case FieldPrimary:
		return strconv.FormatBool(row.IsPrimary)
	default:
		return ""
	}
}
