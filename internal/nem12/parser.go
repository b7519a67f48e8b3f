// Package nem12 parses NEM12 meter data files into MeterRead records.
//
// Only record types 100 (header), 200 (meter read), 300 (interval volume)
// and 900 (trailer) are understood. Any other record type is skipped.
// A file must start with a 100 record and end with a 900 record; every 300
// record attaches its volume to the MeterRead opened by the nearest
// preceding 200 record.
package nem12

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/nem12-parser/internal/csvparser"
	"github.com/ginjaninja78/nem12-parser/internal/validation"
)

// LineSource supplies the raw lines of a file.
type LineSource interface {
	Lines(path string) ([]string, error)
}

// RecordObserver is told about every record dispatched by the parser.
type RecordObserver interface {
	ObserveRecord(recordType string)
}

// Field positions.
const (
	readNMIField  = 1
	readUnitField = 2

	volumeDateField     = 1
	volumeQuantityField = 2
	volumeQualityField  = 3
)

var (
	readFields   = []string{"record_type", "nmi", "energy_unit"}
	volumeFields = []string{"record_type", "date", "quantity", "quality"}
)

var (
	nmiRule      = validation.Length(NMILength)
	unitRule     = validation.Equals(string(KWH))
	qualityRule  = validation.OneOf(string(Active), string(Estimate))
	quantityRule = validation.NotEmpty()
)

// Parser parses NEM12 content. A Parser holds no per-parse state and may
// be shared between goroutines.
type Parser struct {
	logger   *slog.Logger
	source   LineSource
	observer RecordObserver
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithLineSource replaces the filesystem line source.
func WithLineSource(s LineSource) Option {
	return func(p *Parser) { p.source = s }
}

// WithObserver registers an observer for dispatched records.
func WithObserver(o RecordObserver) Option {
	return func(p *Parser) { p.observer = o }
}

// NewParser returns a Parser that reads from the local filesystem and
// discards log output unless configured otherwise.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger: slog.New(slog.DiscardHandler),
		source: csvparser.FileSource{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of parsing one file.
type Result struct {
	// Source is the path (or name) that was parsed.
	Source string

	// Lines is the number of lines read from the source.
	Lines int

	// Reads holds every MeterRead completed before parsing stopped. It is
	// never nil.
	Reads []*MeterRead

	// Err is nil on success.
	Err error
}

// OK reports whether the whole source parsed successfully.
func (r Result) OK() bool { return r.Err == nil }

// Empty reports whether the source had no lines at all.
func (r Result) Empty() bool { return r.Err == nil && r.Lines == 0 }

// Partial reports whether parsing failed after producing some reads.
func (r Result) Partial() bool { return r.Err != nil && len(r.Reads) > 0 }

// VolumeCount returns the number of volumes across all reads.
func (r Result) VolumeCount() int {
	n := 0
	for _, read := range r.Reads {
		n += read.Len()
	}
	return n
}

// ParseFile reads and parses the file at path. Failures are logged and
// returned in Result.Err alongside whatever reads were completed.
func (p *Parser) ParseFile(path string) Result {
	lines, err := p.source.Lines(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return p.finish(Result{Source: path, Reads: []*MeterRead{}, Err: err})
	}
	return p.parse(path, lines)
}

// ParseReader parses lines read from r. name identifies the input in logs.
func (p *Parser) ParseReader(name string, r io.Reader) Result {
	lines, err := csvparser.Lines(r)
	if err != nil {
		return p.finish(Result{Source: name, Reads: []*MeterRead{}, Err: err})
	}
	return p.parse(name, lines)
}

// ParseSimpleNem12 parses the file at path and returns the reads only.
// It never fails: errors are logged and the partial or empty collection
// is returned. Use ParseFile to tell an empty file from a failed one.
func (p *Parser) ParseSimpleNem12(path string) []*MeterRead {
	return p.ParseFile(path).Reads
}

func (p *Parser) parse(source string, lines []string) Result {
	res := Result{Source: source, Lines: len(lines), Reads: []*MeterRead{}}
	if len(lines) == 0 {
		return p.finish(res)
	}
	res.Reads, res.Err = p.ParseLines(lines)
	return p.finish(res)
}

func (p *Parser) finish(res Result) Result {
	if res.Err != nil {
		p.logger.Error("nem12 parse failed",
			"source", res.Source,
			"reads", len(res.Reads),
			"error", res.Err,
		)
		return res
	}
	p.logger.Debug("nem12 parse complete",
		"source", res.Source,
		"lines", res.Lines,
		"reads", len(res.Reads),
		"volumes", res.VolumeCount(),
	)
	return res
}

// ParseLines validates the envelope and then dispatches every line in
// order. On failure it returns the reads completed before the failing
// line together with the error; an envelope failure returns no reads.
func (p *Parser) ParseLines(lines []string) ([]*MeterRead, error) {
	if err := ValidateEnvelope(lines); err != nil {
		return []*MeterRead{}, err
	}

	agg := &aggregation{reads: []*MeterRead{}}
	for i, line := range lines {
		fields := csvparser.SplitRecord(line)
		recordType := fields[0]
		if p.observer != nil {
			p.observer.ObserveRecord(recordType)
		}

		var err error
		switch recordType {
		case RecordRead:
			err = agg.handleRead(fields)
		case RecordVolume:
			err = agg.handleVolume(fields)
		default:
			// 100 and 900 were consumed by the envelope check. Other record
			// types are skipped.
		}
		if err != nil {
			return agg.reads, &ParseError{Line: i + 1, RecordType: recordType, Err: err}
		}
	}
	return agg.reads, nil
}

// aggregation is the state of one parse run. current is the MeterRead
// that 300 records attach to; it is nil until the first 200 record.
type aggregation struct {
	reads   []*MeterRead
	current *MeterRead
}

func (a *aggregation) handleRead(fields []string) error {
	if err := requireFields(fields, readFields); err != nil {
		return err
	}
	nmi, unit := fields[readNMIField], fields[readUnitField]

	if !validation.Field(nmi, nmiRule) {
		return fieldError("nmi", nmi, "length",
			fmt.Sprintf("NMI must be exactly %d characters", NMILength))
	}
	if !validation.Field(unit, unitRule) {
		return fieldError("energy_unit", unit, "enum",
			fmt.Sprintf("energy unit must be %s", KWH))
	}

	read, err := NewMeterRead(nmi, EnergyUnit(unit))
	if err != nil {
		return err
	}
	a.reads = append(a.reads, read)
	a.current = read
	return nil
}

func (a *aggregation) handleVolume(fields []string) error {
	if a.current == nil {
		return ErrMissingCurrentRecord
	}
	if err := requireFields(fields, volumeFields); err != nil {
		return err
	}

	quality := fields[volumeQualityField]
	if !validation.Field(quality, qualityRule) {
		return fieldError("quality", quality, "enum",
			"quality must be Active (A) or Estimate (E)")
	}

	if !validation.Field(fields[volumeQuantityField], quantityRule) {
		return fieldError("quantity", fields[volumeQuantityField], "required",
			"quantity is empty")
	}
	quantity, err := decimal.NewFromString(fields[volumeQuantityField])
	if err != nil {
		return fieldError("quantity", fields[volumeQuantityField], "decimal",
			"quantity is not a decimal number")
	}

	date, err := ParseDate(fields[volumeDateField])
	if err != nil {
		return err
	}

	a.current.AppendVolume(date, MeterVolume{Volume: quantity, Quality: Quality(quality)})
	return nil
}

func fieldError(field, value, rule, msg string) error {
	return fmt.Errorf("%w: %w", ErrFieldValidation, &validation.ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: msg,
	})
}

// requireFields fails on the first named position the record lacks.
func requireFields(fields, names []string) error {
	if len(fields) >= len(names) {
		return nil
	}
	return fieldError(names[len(fields)], "", "required",
		fmt.Sprintf("record has %d fields, need at least %d", len(fields), len(names)))
}
