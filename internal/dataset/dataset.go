package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	// ErrMalformedRecord is returned for a row with too few or invalid columns.
	ErrMalformedRecord = errors.New("dataset: malformed record")

	// ErrEmpty is returned when the input holds no rating.
	ErrEmpty = errors.New("dataset: no ratings")
)

// Rating is one observed (user, item, value) triple.
type Rating struct {
	User  string
	Item  string
	Value float64
}

// Options configures parsing.
type Options struct {
	// Delimiter separates columns. Defaults to ','.
	Delimiter rune
}

// DefaultOptions contains the default parsing options.
var DefaultOptions = Options{
	Delimiter: ',',
}

// WithDelimiter sets the column delimiter.
func WithDelimiter(d rune) func(*Options) {
	return func(o *Options) {
		o.Delimiter = d
	}
}

// Read parses ratings from r.
func Read(r io.Reader, optFns ...func(o *Options)) ([]Rating, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		ratings []Rating
		line    int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read: %w", err)
		}
		line++

		if len(rec) < 3 {
			return nil, fmt.Errorf("%w: line %d: want at least 3 columns, got %d", ErrMalformedRecord, line, len(rec))
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("%w: line %d: rating %q", ErrMalformedRecord, line, rec[2])
		}
		user, item := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if user == "" || item == "" {
			return nil, fmt.Errorf("%w: line %d: empty user or item", ErrMalformedRecord, line)
		}
		ratings = append(ratings, Rating{User: user, Item: item, Value: value})
	}

	if len(ratings) == 0 {
		return nil, ErrEmpty
	}
	return ratings, nil
}

// Open reads ratings from a file, decompressing it according to its extension.
func Open(path string, optFns ...func(o *Options)) (ratings []Rating, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	r, closeFn, err := decompress(f, path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	defer closeFn()

	return Read(r, optFns...)
}

func decompress(r io.Reader, path string) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}
