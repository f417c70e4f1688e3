package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same integer", Int(1), Int(1), true},
		{"different integer", Int(1), Int(2), false},
		{"integer vs real", Int(1), Real(1), false},
		{"same real", Real(1.5), Real(1.5), true},
		{"signed zeros", Real(0), Real(math.Copysign(0, -1)), true},
		{"NaN", Real(math.NaN()), Real(math.NaN()), false},
		{"char vs string", Char('a'), String("a"), true},
		{"same time", Time(TimeOfDay{1, 2, 3}), Time(TimeOfDay{1, 2, 3}), true},
		{"different time", Time(TimeOfDay{1, 2, 3}), Time(TimeOfDay{1, 2, 4}), false},
		{"time vs string", Time(TimeOfDay{1, 2, 3}), String("01:02:03"), false},
		{"invalid", Value{}, Value{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
			if tt.want {
				ka, oka := tt.a.hashKey()
				kb, okb := tt.b.hashKey()
				require.True(t, oka)
				require.True(t, okb)
				assert.Equal(t, ka, kb)
			}
		})
	}
}

func TestTime_OutOfRangeIsInvalid(t *testing.T) {
	assert.False(t, Time(TimeOfDay{Hour: 24}).IsValid())
	assert.False(t, Time(TimeOfDay{Minute: -1}).IsValid())
	assert.True(t, Time(TimeOfDay{Hour: 23, Minute: 59, Second: 59}).IsValid())
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05:09")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7, Minute: 5, Second: 9}, tod)
	assert.Equal(t, "07:05:09", tod.String())

	_, err = ParseTimeOfDay("25:00:00")
	assert.Error(t, err)
}

func TestValue_JSON(t *testing.T) {
	record := map[string]Value{
		"id":    Int(7),
		"price": Real(3),
		"code":  Char('x'),
		"name":  String("widget"),
		"at":    Time(TimeOfDay{Hour: 12, Minute: 30}),
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"price":3.0,"code":"x","name":"widget","at":{"$time":"12:30:00"}}`, string(data))

	var decoded map[string]Value
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, KindInteger, decoded["id"].Kind())
	assert.Equal(t, KindReal, decoded["price"].Kind())
	assert.Equal(t, KindString, decoded["code"].Kind())
	assert.True(t, decoded["code"].Equal(record["code"]))
	assert.True(t, decoded["at"].Equal(record["at"]))
}

func TestValue_UnmarshalJSONRejects(t *testing.T) {
	for _, raw := range []string{`true`, `null`, `[1]`, `{"other":1}`, `{"$time":"99:00:00"}`} {
		var v Value
		assert.Error(t, json.Unmarshal([]byte(raw), &v), raw)
	}
}
