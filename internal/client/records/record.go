package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
)

const (
	// AllTypes is the filter tag selecting every record.
	AllTypes = "all"
	// DefaultType is assigned when the backend omits a type.
	DefaultType = "url"
	// DefaultName is the label the terminal client submits when the user
	// leaves the name empty.
	DefaultName = "Untitled QR Code"
)

// ErrMalformedRecord marks a backend object that cannot become a Record.
var ErrMalformedRecord = fmt.Errorf("%w: malformed qr record", api.ErrInternal)

// Record is the canonical QR record.
type Record struct {
	ID       string
	Name     string
	URL      string
	ImageURL string
	Type     string

	CreatedAt time.Time
	// CreatedAtEstimated is set when the backend omitted the creation time
	// and CreatedAt holds the client clock instead.
	CreatedAtEstimated bool

	Scans int64
}

var envelopeKeys = []string{"data", "qr", "qrCode", "qr_code"}

// Unwrap returns the record object inside a response envelope. Objects that
// carry an id are returned as is.
func Unwrap(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	if _, ok := raw["id"]; ok {
		return raw
	}
	for _, k := range envelopeKeys {
		if inner, ok := raw[k].(map[string]any); ok {
			return Unwrap(inner)
		}
		if inner, ok := raw[k].(api.RawRecord); ok {
			return Unwrap(inner)
		}
	}
	return raw
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize turns a decoded backend object into a Record. snake_case keys
// win over their camelCase twins when both are set. now supplies CreatedAt
// when the object has none.
func Normalize(raw map[string]any, now time.Time) (Record, error) {
	id, ok := idString(raw["id"])
	if !ok {
		return Record{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}

	r := Record{ID: id}
	r.Name, _ = api.FieldString(raw, "name")
	r.URL, _ = api.FieldString(raw, "url")
	r.ImageURL, _ = api.FieldString(raw, "image_url", "imageUrl")
	if r.Type, ok = api.FieldString(raw, "type"); !ok {
		r.Type = DefaultType
	}

	if created, ok := api.FieldString(raw, "created_at", "createdAt"); ok {
		t, err := parseTime(created)
		if err != nil {
			return Record{}, fmt.Errorf("%w: record %s: %w", ErrMalformedRecord, id, err)
		}
		r.CreatedAt = t
	} else {
		r.CreatedAt = now
		r.CreatedAtEstimated = true
	}

	if s, ok := api.FieldString(raw, "scans", "scan_count", "scanCount"); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil && n >= 0 {
			r.Scans = int64(n)
		}
	}

	return r, nil
}

func idString(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		id = strings.TrimSpace(id)
		return id, id != ""
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		if f, err := id.Float64(); err == nil {
			return formatFloatID(f), true
		}
		return id.String(), id.String() != ""
	case float64:
		return formatFloatID(id), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}

func formatFloatID(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var errBadTime = errors.New("unrecognized created_at")

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadTime, s)
}

// sameDay reports whether t falls on the calendar day of now, in now's
// location.
func sameDay(t, now time.Time) bool {
	ty, tm, td := t.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}
