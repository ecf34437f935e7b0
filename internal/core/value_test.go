package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping_SetKeepsPosition(t *testing.T) {
	m := NewMapping()
	m.Set("b", IntValue(1))
	m.Set("a", IntValue(2))
	m.Set("b", IntValue(3))

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, IntValue(3), v)
}

func TestMapping_SetPath(t *testing.T) {
	m := NewMapping()
	m.SetPath([]string{"geo", "lat"}, FloatValue(1.5))
	m.SetPath([]string{"geo", "lng"}, FloatValue(2.5))
	m.SetPath([]string{"zip"}, StringValue("12345"))

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"geo":{"lat":1.5,"lng":2.5},"zip":"12345"}`, string(data))
}

func TestMapping_SetPathOverwritesScalarIntermediate(t *testing.T) {
	m := NewMapping()
	m.Set("a", StringValue("scalar"))
	m.SetPath([]string{"a", "b"}, IntValue(1))

	v, ok := m.Get("a")
	require.True(t, ok)
	nested, isMapping := v.Mapping()
	require.True(t, isMapping, "intermediate should become a mapping")
	assert.Equal(t, []string{"b"}, nested.Keys())
}

func TestMapping_SetPathEmptyIsNoop(t *testing.T) {
	m := NewMapping()
	m.SetPath(nil, IntValue(1))
	assert.Equal(t, 0, m.Len())
}

func TestMapping_NilSafe(t *testing.T) {
	var m *Mapping
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	assert.Nil(t, m.ToMap())
	assert.True(t, m.Equal(NewMapping()))

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NullValue(), "null"},
		{"int", IntValue(-4), "-4"},
		{"float", FloatValue(2.25), "2.25"},
		{"bool", BoolValue(true), "true"},
		{"string escapes quotes", StringValue(`say "hi"`), `"say \"hi\""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.v.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "", NullValue().Text())
	assert.Equal(t, "34", IntValue(34).Text())
	assert.Equal(t, "34.5", FloatValue(34.5).Text())
	assert.Equal(t, "false", BoolValue(false).Text())
	assert.Equal(t, "x", StringValue("x").Text())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, IntValue(1).Equal(IntValue(1)))
	assert.False(t, IntValue(1).Equal(FloatValue(1)))
	assert.False(t, StringValue("1").Equal(IntValue(1)))
	assert.True(t, NullValue().Equal(Value{}))

	a := NewMapping()
	a.Set("x", IntValue(1))
	a.Set("y", IntValue(2))
	b := NewMapping()
	b.Set("y", IntValue(2))
	b.Set("x", IntValue(1))
	assert.False(t, MappingValue(a).Equal(MappingValue(b)), "key order matters")
}
