package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/turtle/internal/turtle"
)

// MarshalCanonical produces the deterministic JSON form of an event.
//
// Differences from json.Marshal:
//  1. Object keys are sorted
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Numbers use the shortest fixed-point form; NaN and ±Inf are rejected
//  5. Negative zero is written as 0
//
// Equal events always produce byte-identical output.
func MarshalCanonical(ev Event) ([]byte, error) {
	m, err := ToMap(ev)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(m)
}

// MarshalCanonicalValue encodes a tree of map[string]any, []any, string,
// float64, int, int64 and bool with the same rules as MarshalCanonical.
// It lets callers embed events in larger canonical documents.
func MarshalCanonicalValue(v any) ([]byte, error) {
	return marshalCanonical(v)
}

// Unmarshal parses the canonical form back into an event.
func Unmarshal(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return w.toEvent()
}

// ToMap returns the object MarshalCanonical encodes for ev.
func ToMap(ev Event) (map[string]any, error) {
	m := map[string]any{}
	switch e := ev.(type) {
	case Moved:
		m["distance"] = e.Distance
	case Turned:
		m["angle"] = e.Angle
	case PenWentUp, PenWentDown:
	case ColorChanged:
		if !e.Color.Valid() {
			return nil, fmt.Errorf("marshal %s: invalid color %d", e.Type(), int(e.Color))
		}
		m["color"] = e.Color.String()
	case MovedEvent:
		m["start"] = positionMap(e.Start)
		m["end"] = positionMap(e.End)
		if e.PenColor != nil {
			if !e.PenColor.Valid() {
				return nil, fmt.Errorf("marshal %s: invalid pen color %d", e.Type(), int(*e.PenColor))
			}
			m["pen_color"] = e.PenColor.String()
		}
	case nil:
		return nil, fmt.Errorf("marshal event: nil event")
	default:
		return nil, fmt.Errorf("marshal event: unsupported type %T", ev)
	}
	m["type"] = ev.Type()
	return m, nil
}

func positionMap(p turtle.Position) map[string]any {
	return map[string]any{"x": p.X, "y": p.Y}
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return marshalCanonicalString(val)
	case float64:
		return marshalCanonicalNumber(val)
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case int:
		return []byte(strconv.Itoa(val)), nil
	case bool:
		return []byte(strconv.FormatBool(val)), nil
	case map[string]any:
		return marshalCanonicalObject(val)
	case []any:
		return marshalCanonicalArray(val)
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString escapes only what JSON requires.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalCanonicalNumber(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number in canonical JSON: %v", f)
	}
	if f == 0 {
		return []byte("0"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalCanonical(v)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

type wirePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireEvent struct {
	Type     string        `json:"type"`
	Distance *float64      `json:"distance"`
	Angle    *float64      `json:"angle"`
	Color    *string       `json:"color"`
	Start    *wirePosition `json:"start"`
	End      *wirePosition `json:"end"`
	PenColor *string       `json:"pen_color"`
}

func (w wireEvent) toEvent() (Event, error) {
	switch w.Type {
	case TypeMoved:
		if w.Distance == nil {
			return nil, missingField(w.Type, "distance")
		}
		return Moved{Distance: *w.Distance}, nil
	case TypeTurned:
		if w.Angle == nil {
			return nil, missingField(w.Type, "angle")
		}
		return Turned{Angle: *w.Angle}, nil
	case TypePenWentUp:
		return PenWentUp{}, nil
	case TypePenWentDown:
		return PenWentDown{}, nil
	case TypeColorChanged:
		if w.Color == nil {
			return nil, missingField(w.Type, "color")
		}
		c, err := turtle.ParseColor(*w.Color)
		if err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", w.Type, err)
		}
		return ColorChanged{Color: c}, nil
	case TypeMovedEvent:
		if w.Start == nil {
			return nil, missingField(w.Type, "start")
		}
		if w.End == nil {
			return nil, missingField(w.Type, "end")
		}
		e := MovedEvent{
			Start: turtle.Position{X: w.Start.X, Y: w.Start.Y},
			End:   turtle.Position{X: w.End.X, Y: w.End.Y},
		}
		if w.PenColor != nil {
			c, err := turtle.ParseColor(*w.PenColor)
			if err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", w.Type, err)
			}
			e.PenColor = &c
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unmarshal event: unknown type %q", w.Type)
	}
}

func missingField(typ, field string) error {
	return fmt.Errorf("unmarshal %s: missing field %q", typ, field)
}
