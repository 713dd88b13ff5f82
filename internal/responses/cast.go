package responses

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/cast"
)

// Each cast returns a present option for a usable value and an absent one
// for anything else; a bad cell never fails the table.

// castInteger accepts JSON numbers and numeric strings with an integral value.
func castInteger(v any) mo.Option[int64] {
	switch x := v.(type) {
	case json.Number:
		return parseInteger(string(x))
	case string:
		return parseInteger(strings.TrimSpace(x))
	case float32:
		return integralFloat(float64(x))
	case float64:
		return integralFloat(x)
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return mo.Some(cast.ToInt64(x))
	default:
		return mo.None[int64]()
	}
}

func parseInteger(s string) mo.Option[int64] {
	if s == "" {
		return mo.None[int64]()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return mo.Some(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return mo.None[int64]()
	}
	return integralFloat(f)
}

func integralFloat(f float64) mo.Option[int64] {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return mo.None[int64]()
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return mo.None[int64]()
	}
	return mo.Some(int64(f))
}

// castString keeps strings verbatim and renders other scalars as text.
func castString(v any) mo.Option[string] {
	switch x := v.(type) {
	case nil:
		return mo.None[string]()
	case string:
		return mo.Some(x)
	case json.Number:
		return mo.Some(x.String())
	case RawJSON:
		return mo.Some(string(x))
	default:
		s, err := cast.ToStringE(x)
		if err != nil {
			return mo.None[string]()
		}
		return mo.Some(s)
	}
}

// castDatetime parses date-time strings, normalized to UTC. Strings without
// an offset are read as UTC.
func castDatetime(v any) mo.Option[time.Time] {
	switch x := v.(type) {
	case time.Time:
		return mo.Some(x.UTC())
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return mo.None[time.Time]()
		}
		t, err := cast.ToTimeE(s)
		if err != nil {
			return mo.None[time.Time]()
		}
		return mo.Some(t.UTC())
	default:
		return mo.None[time.Time]()
	}
}

// castRaw keeps a value from a column the schema does not declare.
func castRaw(v any) mo.Option[any] {
	if v == nil {
		return mo.None[any]()
	}
	return mo.Some(v)
}
