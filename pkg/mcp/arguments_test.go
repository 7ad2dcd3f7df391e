package mcp

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentsString(t *testing.T) {
	args := Arguments{"status": "HELD", "empty": "", "null": nil, "number": 5.0}

	s, err := args.String("status")
	require.NoError(t, err)
	assert.Equal(t, "HELD", s)

	for _, name := range []string{"empty", "null", "absent"} {
		s, err := args.String(name)
		require.NoError(t, err, name)
		assert.Empty(t, s, name)
	}

	_, err = args.String("number")
	assert.EqualError(t, err, "invalid argument number: expected string, got 5")
}

func TestArgumentsRequiredString(t *testing.T) {
	args := Arguments{"accountId": "acc-1", "blank": "", "flag": true}

	s, err := args.RequiredString("accountId")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", s)

	_, err = args.RequiredString("blank")
	assert.EqualError(t, err, "missing required argument: blank")

	_, err = args.RequiredString("absent")
	assert.EqualError(t, err, "missing required argument: absent")

	_, err = args.RequiredString("flag")
	assert.EqualError(t, err, "invalid argument flag: expected string, got boolean")
}

func TestArgumentsInt(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected int
		errMsg   string
	}{
		{name: "absent", value: nil, expected: 0},
		{name: "json number", value: 25.0, expected: 25},
		{name: "go int", value: 7, expected: 7},
		{name: "go int64", value: int64(100), expected: 100},
		{name: "json.Number", value: json.Number("40"), expected: 40},
		{name: "numeric string", value: " 15 ", expected: 15},
		{name: "empty string", value: "", expected: 0},
		{name: "fraction", value: 12.5, errMsg: "invalid argument pageSize: expected integer, got 12.5"},
		{name: "word", value: "ten", errMsg: `invalid argument pageSize: expected integer, got "ten"`},
		{name: "fractional json.Number", value: json.Number("1.5"), errMsg: "invalid argument pageSize: expected integer, got 1.5"},
		{name: "array", value: []interface{}{1.0}, errMsg: "invalid argument pageSize: expected integer, got array"},
		{name: "object", value: map[string]interface{}{}, errMsg: "invalid argument pageSize: expected integer, got object"},
		{name: "large float", value: 1e12, errMsg: "invalid argument pageSize: expected integer, got 1e+12"},
		{name: "large int64", value: int64(1) << 40, errMsg: "invalid argument pageSize: expected integer, got 1099511627776"},
		{name: "large json.Number", value: json.Number("9999999999"), errMsg: "invalid argument pageSize: expected integer, got 9999999999"},
		{name: "large numeric string", value: "9999999999", errMsg: `invalid argument pageSize: expected integer, got "9999999999"`},
		{name: "negative bound", value: json.Number("-2147483648"), expected: math.MinInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := Arguments{}
			if tt.value != nil {
				args["pageSize"] = tt.value
			}

			got, err := args.Int("pageSize")
			if tt.errMsg != "" {
				assert.EqualError(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestArgumentsNilMap(t *testing.T) {
	var args Arguments

	s, err := args.String("tag")
	require.NoError(t, err)
	assert.Empty(t, s)

	n, err := args.Int("pageSize")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecodeArguments(t *testing.T) {
	for _, raw := range []string{"", "  ", "null"} {
		args, err := decodeArguments(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Nil(t, args, raw)
	}

	args, err := decodeArguments(json.RawMessage(`{"accountId":"acc-1","pageSize":25}`))
	require.NoError(t, err)
	assert.Equal(t, "acc-1", args["accountId"])
	assert.Equal(t, json.Number("25"), args["pageSize"])

	_, err = decodeArguments(json.RawMessage(`["acc-1"]`))
	assert.ErrorContains(t, err, "invalid arguments: expected a JSON object")
}
