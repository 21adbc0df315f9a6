// Package wire implements the line protocol the enumeration helper writes to
// its inherited pipe.
//
// Each line is one of:
//
//	ERROR:8000FFFF                     fatal status, nothing follows
//	{iid}[,module,offset]              instance-side interface
//	*{iid}[,module,offset]             factory-side interface
//
// The offset is a decimal signed integer relative to the module base.
package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/record"
)

const (
	errorPrefix   = "ERROR:"
	factoryPrefix = "*"
)

// Kind classifies a parsed line.
type Kind int

const (
	// KindInvalid is a line that failed to parse and must be dropped.
	KindInvalid Kind = iota
	// KindInstance is an instance-side record.
	KindInstance
	// KindFactory is a factory-side record.
	KindFactory
	// KindError is a fatal status line.
	KindError
)

// Line is one decoded protocol line.
type Line struct {
	Kind   Kind
	Record record.Interface
	Status comid.HResult
}

// ParseLine decodes a single line without its terminator.
func ParseLine(s string) Line {
	s = strings.TrimRight(s, "\r\n")

	if payload, ok := strings.CutPrefix(s, errorPrefix); ok {
		code, err := strconv.ParseUint(strings.TrimSpace(payload), 16, 32)
		if err != nil {
			return Line{Kind: KindError, Status: comid.EFail}
		}
		return Line{Kind: KindError, Status: comid.HResult(code)}
	}

	kind := KindInstance
	if rest, ok := strings.CutPrefix(s, factoryPrefix); ok {
		kind = KindFactory
		s = rest
	}

	fields := strings.SplitN(s, ",", 3)
	iid, err := comid.Parse(fields[0])
	if err != nil {
		return Line{Kind: KindInvalid}
	}

	var module string
	if len(fields) > 1 {
		module = fields[1]
	}
	var offset int64
	if len(fields) > 2 {
		if v, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64); err == nil {
			offset = v
		}
	}

	return Line{Kind: kind, Record: record.NewWithModule(iid, module, offset)}
}

// FormatRecord encodes rec, with the factory prefix when factory is set.
func FormatRecord(rec record.Interface, factory bool) string {
	var b strings.Builder
	if factory {
		b.WriteString(factoryPrefix)
	}
	b.WriteString(comid.Braced(rec.IID()))
	if mod, ok := rec.Module(); ok {
		b.WriteByte(',')
		b.WriteString(mod)
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(rec.Offset(), 10))
	}
	return b.String()
}

// FormatError encodes a fatal status line.
func FormatError(hr comid.HResult) string {
	return fmt.Sprintf("%s%08X", errorPrefix, uint32(hr))
}

// Writer writes protocol lines to the helper's pipe.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteResult writes every instance record then every factory record.
func (w *Writer) WriteResult(res *record.Result) error {
	for _, rec := range res.Instance {
		if err := w.writeLine(FormatRecord(rec, false)); err != nil {
			return err
		}
	}
	for _, rec := range res.Factory {
		if err := w.writeLine(FormatRecord(rec, true)); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// WriteError writes a fatal status line and flushes.
func (w *Writer) WriteError(hr comid.HResult) error {
	if err := w.writeLine(FormatError(hr)); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) writeLine(s string) error {
	if _, err := w.w.WriteString(s); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// maxLineSize fits a record carrying a 32767-character module path encoded
// as UTF-8.
const maxLineSize = 256 * 1024

// ReadResult consumes lines from r in arrival order until end of stream or
// an ERROR line. Unparsable lines are dropped. A fatal line stops reading
// immediately and is returned as the result's Failure.
func ReadResult(r io.Reader) (*record.Result, error) {
	res := &record.Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		line := ParseLine(scanner.Text())
		switch line.Kind {
		case KindError:
			res.Failure = line.Status
			return res, nil
		case KindInstance:
			res.Instance = append(res.Instance, line.Record)
		case KindFactory:
			res.Factory = append(res.Factory, line.Record)
		}
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read helper output: %w", err)
	}
	return res, nil
}
