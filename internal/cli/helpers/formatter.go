package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
)

// OutputFormat represents the desired output format.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

// AllFormats lists every supported format.
var AllFormats = []OutputFormat{FormatTable, FormatJSON, FormatCSV}

// Formatter defines the interface for formatting command results.
type Formatter interface {
	Format(data any, writer io.Writer) error
}

// NewFormatter creates a new Formatter for the given format.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatCSV:
		return &CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONFormatter formats data as JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, writer io.Writer) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// TableFormatter formats a slice of structs as a table using `header` struct
// tags. An empty slice prints only the header row.
type TableFormatter struct{}

func (f *TableFormatter) Format(data any, writer io.Writer) error {
	val, headers, err := tabular(data)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(writer, 0, 0, 3, ' ', 0)
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for i := 0; i < val.Len(); i++ {
		row := getRowValues(val.Index(i))
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// CSVFormatter formats a slice of structs as CSV using `header` struct tags.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(data any, writer io.Writer) error {
	val, headers, err := tabular(data)
	if err != nil {
		return err
	}

	w := csv.NewWriter(writer)
	if err := w.Write(headers); err != nil {
		return err
	}
	for i := 0; i < val.Len(); i++ {
		if err := w.Write(getRowValues(val.Index(i))); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func tabular(data any) (reflect.Value, []string, error) {
	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Slice {
		return reflect.Value{}, nil, fmt.Errorf("data must be a slice")
	}
	elem := val.Type().Elem()
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("data must be a slice of structs")
	}
	return val, getHeaders(elem), nil
}

func getHeaders(t reflect.Type) []string {
	var headers []string
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("header"); tag != "" {
			headers = append(headers, tag)
		}
	}
	return headers
}

func getRowValues(v reflect.Value) []string {
	var values []string
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).Tag.Get("header") != "" {
			values = append(values, fmt.Sprintf("%v", v.Field(i).Interface()))
		}
	}
	return values
}
