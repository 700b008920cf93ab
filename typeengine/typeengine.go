// Package typeengine converts between native Go values and Notion API JSON
// property fragments. Every variant's Bind and Result are inverses over the
// variant's declared domain: Result(Bind(v)) == v.
package typeengine

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/gopherdb/notionsql/internal/nerr"
)

// Tag identifies which Type variant a value belongs to, used by reflection
// rows and by the cross-compiler's property lookups.
type Tag int

const (
	TagInteger Tag = iota
	TagNumeric
	TagMoney
	TagString
	TagBoolean
	TagDate
	TagUUID
	TagObjectId
	TagArchivalFlag
)

func (t Tag) String() string {
	switch t {
	case TagInteger:
		return "Integer"
	case TagNumeric:
		return "Numeric"
	case TagMoney:
		return "Money"
	case TagString:
		return "String"
	case TagBoolean:
		return "Boolean"
	case TagDate:
		return "Date"
	case TagUUID:
		return "UUID"
	case TagObjectId:
		return "ObjectId"
	case TagArchivalFlag:
		return "ArchivalFlag"
	default:
		return "Unknown"
	}
}

// Fragment is a Notion property-value JSON fragment, e.g. {"number": 2}.
type Fragment = map[string]any

// Type is the bidirectional value<->payload contract every variant
// implements.
type Type interface {
	Tag() Tag
	// Bind converts a native value into the Notion wire fragment.
	Bind(v any) (Fragment, error)
	// Result converts a Notion wire fragment back into a native value.
	Result(f Fragment) (any, error)
	// ColSpec is the property type descriptor used in CREATE TABLE
	// payloads. It never carries a "type" key — the wire form places the
	// type tag at the containing property, not inside the spec.
	ColSpec() Fragment
}

// DateValue is the native domain value for the Date variant. End is nil for
// a point-in-time date.
type DateValue struct {
	Start time.Time
	End   *time.Time
}

// New resolves a SQL-surface type name (as lexed/parsed, lowercase) and its
// optional parenthesized argument into a Type. arg is the size for
// varchar/title_varchar (unused beyond validity — this dialect does not
// enforce column width) or the currency code for money.
func New(sqlType string, arg string) (Type, error) {
	switch strings.ToLower(sqlType) {
	case "int":
		return IntegerType{}, nil
	case "number":
		return NumericType{}, nil
	case "money":
		if arg == "" {
			return nil, nerr.New(nerr.KindInvalidRequest, "typeengine.New", nil)
		}
		return MoneyType{Currency: strings.ToLower(arg)}, nil
	case "varchar":
		return StringType{IsTitle: false}, nil
	case "title_varchar":
		return StringType{IsTitle: true}, nil
	case "bool":
		return BooleanType{}, nil
	case "date":
		return DateType{}, nil
	default:
		return nil, nerr.Newf(nerr.KindInterface, "typeengine.New", "unsupported column type %q", sqlType)
	}
}

// IntegerType is a whole-number Notion "number" property.
type IntegerType struct{}

func (IntegerType) Tag() Tag { return TagInteger }

func (IntegerType) Bind(v any) (Fragment, error) {
	n, err := asInt(v)
	if err != nil {
		return nil, nerr.New(nerr.KindInterface, "IntegerType.Bind", err)
	}
	return Fragment{"number": n}, nil
}

func (IntegerType) Result(f Fragment) (any, error) {
	n, ok := f["number"]
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "IntegerType.Result", "fragment missing \"number\" key")
	}
	return toInt(n)
}

func (IntegerType) ColSpec() Fragment {
	return Fragment{"number": Fragment{"format": "number"}}
}

// NumericType is a decimal Notion "number" property.
type NumericType struct{}

func (NumericType) Tag() Tag { return TagNumeric }

func (NumericType) Bind(v any) (Fragment, error) {
	n, err := asFloat(v)
	if err != nil {
		return nil, nerr.New(nerr.KindInterface, "NumericType.Bind", err)
	}
	return Fragment{"number": n}, nil
}

func (NumericType) Result(f Fragment) (any, error) {
	n, ok := f["number"]
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "NumericType.Result", "fragment missing \"number\" key")
	}
	return toFloat(n)
}

func (NumericType) ColSpec() Fragment {
	return Fragment{"number": Fragment{"format": "number"}}
}

// MoneyType is a currency-tagged Notion "number" property.
type MoneyType struct {
	Currency string
}

func (MoneyType) Tag() Tag { return TagMoney }

func (m MoneyType) Bind(v any) (Fragment, error) {
	n, err := asFloat(v)
	if err != nil {
		return nil, nerr.New(nerr.KindInterface, "MoneyType.Bind", err)
	}
	return Fragment{"number": n}, nil
}

func (MoneyType) Result(f Fragment) (any, error) {
	n, ok := f["number"]
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "MoneyType.Result", "fragment missing \"number\" key")
	}
	return toFloat(n)
}

func (m MoneyType) ColSpec() Fragment {
	return Fragment{"number": Fragment{"format": m.Currency}}
}

// StringType is a Notion "title" property when IsTitle, else "rich_text".
// Exactly one column per table should set IsTitle, mirroring Notion's rule
// that a database has a single title property.
type StringType struct {
	IsTitle bool
}

func (StringType) Tag() Tag { return TagString }

func (s StringType) propKey() string {
	if s.IsTitle {
		return "title"
	}
	return "rich_text"
}

func (s StringType) Bind(v any) (Fragment, error) {
	str, ok := v.(string)
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "StringType.Bind", "expected string, got %T", v)
	}
	return Fragment{s.propKey(): []any{
		Fragment{"text": Fragment{"content": str}},
	}}, nil
}

func (s StringType) Result(f Fragment) (any, error) {
	raw, ok := f[s.propKey()]
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "StringType.Result", "fragment missing %q key", s.propKey())
	}
	parts, ok := raw.([]any)
	if !ok {
		return nil, nerr.Newf(nerr.KindInternal, "StringType.Result", "expected array for %q, got %T", s.propKey(), raw)
	}
	var b strings.Builder
	for _, p := range parts {
		entry, ok := p.(Fragment)
		if !ok {
			continue
		}
		text, ok := entry["text"].(Fragment)
		if !ok {
			continue
		}
		if c, ok := text["content"].(string); ok {
			b.WriteString(c)
		}
	}
	return b.String(), nil
}

func (s StringType) ColSpec() Fragment {
	return Fragment{s.propKey(): Fragment{}}
}

// BooleanType is a Notion "checkbox" property.
type BooleanType struct{}

func (BooleanType) Tag() Tag { return TagBoolean }

func (BooleanType) Bind(v any) (Fragment, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "BooleanType.Bind", "expected bool, got %T", v)
	}
	return Fragment{"checkbox": b}, nil
}

func (BooleanType) Result(f Fragment) (any, error) {
	b, ok := f["checkbox"]
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "BooleanType.Result", "fragment missing \"checkbox\" key")
	}
	bb, ok := b.(bool)
	if !ok {
		return nil, nerr.Newf(nerr.KindInternal, "BooleanType.Result", "expected bool, got %T", b)
	}
	return bb, nil
}

func (BooleanType) ColSpec() Fragment {
	return Fragment{"checkbox": Fragment{}}
}

// DateType is a Notion "date" property, accepting either a time.Time, a
// DateValue, or a string parsed with dateparse for flexible literal forms.
type DateType struct{}

func (DateType) Tag() Tag { return TagDate }

func (DateType) Bind(v any) (Fragment, error) {
	dv, err := asDateValue(v)
	if err != nil {
		return nil, nerr.New(nerr.KindInterface, "DateType.Bind", err)
	}
	date := Fragment{"start": dv.Start.UTC().Format(time.RFC3339)}
	if dv.End != nil {
		date["end"] = dv.End.UTC().Format(time.RFC3339)
	}
	return Fragment{"date": date}, nil
}

func (DateType) Result(f Fragment) (any, error) {
	raw, ok := f["date"]
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "DateType.Result", "fragment missing \"date\" key")
	}
	date, ok := raw.(Fragment)
	if !ok {
		return nil, nerr.Newf(nerr.KindInternal, "DateType.Result", "expected object for \"date\", got %T", raw)
	}
	startStr, ok := date["start"].(string)
	if !ok {
		return nil, nerr.Newf(nerr.KindInternal, "DateType.Result", "\"date.start\" missing or not a string")
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return nil, nerr.New(nerr.KindInternal, "DateType.Result", err)
	}
	dv := DateValue{Start: start}
	if endStr, ok := date["end"].(string); ok {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return nil, nerr.New(nerr.KindInternal, "DateType.Result", err)
		}
		dv.End = &end
	}
	return dv, nil
}

func (DateType) ColSpec() Fragment {
	return Fragment{"date": Fragment{}}
}

func asDateValue(v any) (DateValue, error) {
	switch x := v.(type) {
	case DateValue:
		return x, nil
	case time.Time:
		return DateValue{Start: x}, nil
	case string:
		t, err := dateparse.ParseAny(x)
		if err != nil {
			return DateValue{}, err
		}
		return DateValue{Start: t}, nil
	default:
		return DateValue{}, nerr.Newf(nerr.KindInterface, "typeengine.asDateValue", "cannot bind %T as a date", v)
	}
}

// UUIDType binds an arbitrary UUID-valued column to a Notion "id" fragment.
type UUIDType struct{}

func (UUIDType) Tag() Tag { return TagUUID }

func (UUIDType) Bind(v any) (Fragment, error) {
	id, err := asUUID(v)
	if err != nil {
		return nil, nerr.New(nerr.KindInterface, "UUIDType.Bind", err)
	}
	return Fragment{"id": id.String()}, nil
}

func (UUIDType) Result(f Fragment) (any, error) {
	s, ok := f["id"].(string)
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "UUIDType.Result", "fragment missing \"id\" key")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, nerr.New(nerr.KindInternal, "UUIDType.Result", err)
	}
	return id, nil
}

func (UUIDType) ColSpec() Fragment {
	return Fragment{"rich_text": Fragment{}}
}

// ObjectIdType is the implicit primary key column's type: the Notion
// object's own id, surfaced as a "rich_text"-shaped property for DDL
// purposes but bound/resulted the same way as UUIDType.
type ObjectIdType struct{}

func (ObjectIdType) Tag() Tag { return TagObjectId }

func (ObjectIdType) Bind(v any) (Fragment, error) {
	id, err := asUUID(v)
	if err != nil {
		return nil, nerr.New(nerr.KindInterface, "ObjectIdType.Bind", err)
	}
	return Fragment{"id": id.String()}, nil
}

func (ObjectIdType) Result(f Fragment) (any, error) {
	s, ok := f["id"].(string)
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "ObjectIdType.Result", "fragment missing \"id\" key")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, nerr.New(nerr.KindInternal, "ObjectIdType.Result", err)
	}
	return id, nil
}

func (ObjectIdType) ColSpec() Fragment {
	return Fragment{"rich_text": Fragment{}}
}

func asUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case string:
		return uuid.Parse(x)
	default:
		return uuid.UUID{}, nerr.Newf(nerr.KindInterface, "typeengine.asUUID", "cannot bind %T as a uuid", v)
	}
}

// ArchivalFlagType is the implicit soft-delete column's type: bound/resulted
// against the Notion object's own "archived" attribute rather than a
// property under "properties".
type ArchivalFlagType struct{}

func (ArchivalFlagType) Tag() Tag { return TagArchivalFlag }

func (ArchivalFlagType) Bind(v any) (Fragment, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "ArchivalFlagType.Bind", "expected bool, got %T", v)
	}
	return Fragment{"archived": b}, nil
}

func (ArchivalFlagType) Result(f Fragment) (any, error) {
	b, ok := f["archived"]
	if !ok {
		return nil, nerr.Newf(nerr.KindInterface, "ArchivalFlagType.Result", "fragment missing \"archived\" key")
	}
	bb, ok := b.(bool)
	if !ok {
		return nil, nerr.Newf(nerr.KindInternal, "ArchivalFlagType.Result", "expected bool, got %T", b)
	}
	return bb, nil
}

func (ArchivalFlagType) ColSpec() Fragment {
	return Fragment{"checkbox": Fragment{}}
}

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(x)
	default:
		return 0, nerr.Newf(nerr.KindInterface, "typeengine.asInt", "cannot bind %T as an integer", v)
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case float64:
		return int(x), nil
	default:
		return 0, nerr.Newf(nerr.KindInternal, "typeengine.toInt", "cannot convert %T to int", v)
	}
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, nerr.Newf(nerr.KindInterface, "typeengine.asFloat", "cannot bind %T as a number", v)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	default:
		return 0, nerr.Newf(nerr.KindInternal, "typeengine.toFloat", "cannot convert %T to float64", v)
	}
}
