package typeengine_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gopherdb/notionsql/typeengine"
)

func TestIntegerBindExemplar(t *testing.T) {
	f, err := typeengine.IntegerType{}.Bind(2)
	require.NoError(t, err)
	require.Equal(t, typeengine.Fragment{"number": 2}, f)
}

func TestTitleStringBindExemplar(t *testing.T) {
	f, err := typeengine.StringType{IsTitle: true}.Bind("Tuscan kale")
	require.NoError(t, err)
	require.Equal(t, typeengine.Fragment{"title": []any{
		typeengine.Fragment{"text": typeengine.Fragment{"content": "Tuscan kale"}},
	}}, f)
}

func TestBooleanBindExemplar(t *testing.T) {
	f, err := typeengine.BooleanType{}.Bind(false)
	require.NoError(t, err)
	require.Equal(t, typeengine.Fragment{"checkbox": false}, f)
}

func TestRoundTripInteger(t *testing.T) {
	typ := typeengine.IntegerType{}
	f, err := typ.Bind(42)
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestRoundTripNumeric(t *testing.T) {
	typ := typeengine.NumericType{}
	f, err := typ.Bind(3.14)
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, 3.14, v)
}

func TestRoundTripMoney(t *testing.T) {
	typ := typeengine.MoneyType{Currency: "usd"}
	f, err := typ.Bind(19.99)
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, 19.99, v)
}

func TestRoundTripRichText(t *testing.T) {
	typ := typeengine.StringType{IsTitle: false}
	f, err := typ.Bind("hello world")
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, "hello world", v)
}

func TestRoundTripTitle(t *testing.T) {
	typ := typeengine.StringType{IsTitle: true}
	f, err := typ.Bind("Isaac Newton")
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, "Isaac Newton", v)
}

func TestRoundTripBoolean(t *testing.T) {
	typ := typeengine.BooleanType{}
	for _, b := range []bool{true, false} {
		f, err := typ.Bind(b)
		require.NoError(t, err)
		v, err := typ.Result(f)
		require.NoError(t, err)
		require.Equal(t, b, v)
	}
}

func TestRoundTripDate(t *testing.T) {
	typ := typeengine.DateType{}
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	f, err := typ.Bind(now)
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	dv := v.(typeengine.DateValue)
	require.True(t, now.Equal(dv.Start))
	require.Nil(t, dv.End)
}

func TestDateBindAcceptsFlexibleStringLiteral(t *testing.T) {
	typ := typeengine.DateType{}
	f, err := typ.Bind("2024-01-02")
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	dv := v.(typeengine.DateValue)
	require.Equal(t, 2024, dv.Start.Year())
	require.Equal(t, time.January, dv.Start.Month())
	require.Equal(t, 2, dv.Start.Day())
}

func TestRoundTripUUID(t *testing.T) {
	typ := typeengine.UUIDType{}
	id := uuid.New()
	f, err := typ.Bind(id)
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, id, v)
}

func TestRoundTripObjectId(t *testing.T) {
	typ := typeengine.ObjectIdType{}
	id := uuid.New()
	f, err := typ.Bind(id)
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, id, v)
}

func TestRoundTripArchivalFlag(t *testing.T) {
	typ := typeengine.ArchivalFlagType{}
	f, err := typ.Bind(true)
	require.NoError(t, err)
	v, err := typ.Result(f)
	require.NoError(t, err)
	require.Equal(t, true, v)
}

func TestColSpecNeverCarriesTypeKey(t *testing.T) {
	types := []typeengine.Type{
		typeengine.IntegerType{}, typeengine.NumericType{}, typeengine.MoneyType{Currency: "usd"},
		typeengine.StringType{IsTitle: true}, typeengine.StringType{IsTitle: false},
		typeengine.BooleanType{}, typeengine.DateType{}, typeengine.UUIDType{},
		typeengine.ObjectIdType{}, typeengine.ArchivalFlagType{},
	}
	for _, typ := range types {
		_, hasType := typ.ColSpec()["type"]
		require.False(t, hasType)
	}
}

func TestNewResolvesSQLSurfaceTypes(t *testing.T) {
	cases := []struct {
		sql string
		arg string
		tag typeengine.Tag
	}{
		{"int", "", typeengine.TagInteger},
		{"number", "", typeengine.TagNumeric},
		{"money", "usd", typeengine.TagMoney},
		{"varchar", "", typeengine.TagString},
		{"title_varchar", "", typeengine.TagString},
		{"bool", "", typeengine.TagBoolean},
		{"date", "", typeengine.TagDate},
	}
	for _, c := range cases {
		typ, err := typeengine.New(c.sql, c.arg)
		require.NoError(t, err)
		require.Equal(t, c.tag, typ.Tag())
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := typeengine.New("blob", "")
	require.Error(t, err)
}

func TestBindUnsupportedTypeFailsInterfaceError(t *testing.T) {
	_, err := typeengine.BooleanType{}.Bind("not a bool")
	require.Error(t, err)
}
