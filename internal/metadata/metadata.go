// Package metadata reads the book metadata file the book generator draws
// titles, publication dates and image names from.
package metadata

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInputFile is returned when the metadata file is missing or malformed.
var ErrInputFile = errors.New("book metadata file error")

type Record struct {
	ID            string     // external reference, used for the image file name
	Title         string     `validate:"required"`
	PublishedDate *time.Time // UTC, nil when absent
}

// ImageName is the image file name of the record, or "" when it has no id.
func (r Record) ImageName() string {
	if r.ID == "" {
		return ""
	}
	return r.ID + ".jpg"
}

type rawRecord struct {
	ID            json.RawMessage `json:"_id"`
	Title         string          `json:"title"`
	PublishedDate *struct {
		Date json.RawMessage `json:"$date"`
	} `json:"publishedDate"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var validate = validator.New()

// LoadFile reads every record of the file at path.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputFile, err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse reads records from r, which holds either a JSON array of objects or
// one object per line.
func Parse(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrInputFile)
		}
		return nil, fmt.Errorf("%w: %w", ErrInputFile, err)
	}

	dec := json.NewDecoder(br)
	var raws []rawRecord
	if first == '[' {
		if err := dec.Decode(&raws); err != nil {
			return nil, fmt.Errorf("%w: failed to decode records: %w", ErrInputFile, err)
		}
	} else {
		for {
			var raw rawRecord
			if err := dec.Decode(&raw); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("%w: failed to decode record %d: %w", ErrInputFile, len(raws)+1, err)
			}
			raws = append(raws, raw)
		}
	}

	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: no book records", ErrInputFile)
	}

	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := raw.record()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInputFile, i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b, br.UnreadByte()
	}
}

func (raw rawRecord) record() (Record, error) {
	rec := Record{Title: strings.TrimSpace(raw.Title)}
	if err := validate.Struct(rec); err != nil {
		return Record{}, errors.New("missing title")
	}

	id, err := parseID(raw.ID)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id

	if raw.PublishedDate != nil && len(raw.PublishedDate.Date) > 0 {
		published, err := parseDate(raw.PublishedDate.Date)
		if err != nil {
			return Record{}, err
		}
		rec.PublishedDate = published
	}

	return rec, nil
}

// parseID accepts a number, a string or an extended JSON {"$oid": "..."}.
func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid _id: %w", err)
		}
		return s, nil
	case '{':
		var oid struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(raw, &oid); err != nil || oid.OID == "" {
			return "", fmt.Errorf("invalid _id %s", raw)
		}
		return oid.OID, nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("invalid _id %s", raw)
		}
		return n.String(), nil
	}
}

// parseDate accepts an ISO-8601 string, epoch milliseconds, or an extended
// JSON {"$numberLong": "<ms>"}.
func parseDate(raw json.RawMessage) (*time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var millis string
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid publishedDate: %w", err)
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t, nil
			}
		}
		return nil, fmt.Errorf("invalid publishedDate %q", s)
	case '{':
		var long struct {
			NumberLong string `json:"$numberLong"`
		}
		if err := json.Unmarshal(raw, &long); err != nil || long.NumberLong == "" {
			return nil, fmt.Errorf("invalid publishedDate %s", raw)
		}
		millis = long.NumberLong
	default:
		millis = string(raw)
	}

	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid publishedDate %s", raw)
	}
	t := time.UnixMilli(ms).UTC()
	return &t, nil
}
