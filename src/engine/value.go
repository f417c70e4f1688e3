package engine

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindReal
	KindChar
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	}
	return "invalid"
}

// TimeOfDay is a wall-clock time without date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

const timeOfDayLayout = "15:04:05"

// ParseTimeOfDay parses an HH:MM:SS string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// Valid reports whether the clock components are in range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 &&
		t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Value is a record attribute: exactly one of integer, real, char, string
// or time-of-day. The zero Value is invalid and satisfies no field type.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    TimeOfDay
}

func Int(v int64) Value {
	return Value{kind: KindInteger, i: v}
}

func Real(v float64) Value {
	return Value{kind: KindReal, f: v}
}

func Char(r rune) Value {
	return Value{kind: KindChar, s: string(r)}
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Time returns a time-of-day value. Out-of-range components yield an
// invalid Value.
func Time(t TimeOfDay) Value {
	if !t.Valid() {
		return Value{}
	}
	return Value{kind: KindTime, t: t}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInteger
}

func (v Value) AsReal() (float64, bool) {
	return v.f, v.kind == KindReal
}

// AsText returns the text of a char or string value.
func (v Value) AsText() (string, bool) {
	return v.s, v.kind == KindChar || v.kind == KindString
}

func (v Value) AsTime() (TimeOfDay, bool) {
	return v.t, v.kind == KindTime
}

// isSingleChar reports whether v is text of exactly one character.
func (v Value) isSingleChar() bool {
	s, ok := v.AsText()
	return ok && utf8.RuneCountInString(s) == 1
}

// Equal is the join equality: same variant class and same payload.
// Char and string share the text class; integer and real never compare equal.
func (v Value) Equal(o Value) bool {
	switch v.kind {
	case KindInteger:
		return o.kind == KindInteger && v.i == o.i
	case KindReal:
		return o.kind == KindReal && v.f == o.f
	case KindChar, KindString:
		s, ok := o.AsText()
		return ok && v.s == s
	case KindTime:
		return o.kind == KindTime && v.t == o.t
	}
	return false
}

// hashKey encodes v so that Equal values produce identical bytes. NaN has
// no key since it equals nothing.
func (v Value) hashKey() ([]byte, bool) {
	switch v.kind {
	case KindInteger:
		buf := make([]byte, 9)
		buf[0] = byte(KindInteger)
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.i))
		return buf, true
	case KindReal:
		if math.IsNaN(v.f) {
			return nil, false
		}
		f := v.f
		if f == 0 {
			f = 0 // folds -0 onto +0
		}
		buf := make([]byte, 9)
		buf[0] = byte(KindReal)
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(f))
		return buf, true
	case KindChar, KindString:
		return append([]byte{byte(KindString)}, v.s...), true
	case KindTime:
		return []byte{byte(KindTime), byte(v.t.Hour), byte(v.t.Minute), byte(v.t.Second)}, true
	}
	return nil, false
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return formatReal(v.f)
	case KindChar, KindString:
		return strconv.Quote(v.s)
	case KindTime:
		return v.t.String()
	}
	return "<invalid>"
}

// formatReal always keeps a decimal point or exponent so a real never reads
// back as an integer.
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

type timeJSON struct {
	Time string `json:"$time"`
}

// MarshalJSON writes integers and reals as JSON numbers, text as strings and
// times as {"$time":"HH:MM:SS"}.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInteger:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindReal:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("cannot encode %v as JSON", v.f)
		}
		return []byte(formatReal(v.f)), nil
	case KindChar, KindString:
		return json.Marshal(v.s)
	case KindTime:
		return json.Marshal(timeJSON{Time: v.t.String()})
	}
	return nil, fmt.Errorf("cannot encode invalid value")
}

// UnmarshalJSON is the inverse of MarshalJSON. A number literal containing a
// decimal point or exponent is real, otherwise integer.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '{':
		var t timeJSON
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if t.Time == "" {
			return fmt.Errorf("unsupported object value %s", data)
		}
		tod, err := ParseTimeOfDay(t.Time)
		if err != nil {
			return err
		}
		*v = Time(tod)
		return nil
	case 't', 'f', 'n', '[':
		return fmt.Errorf("unsupported value %s", data)
	}

	lit := string(data)
	if strings.ContainsAny(lit, ".eE") {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return fmt.Errorf("invalid real %s: %w", lit, err)
		}
		*v = Real(f)
		return nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", lit, err)
	}
	*v = Int(i)
	return nil
}
