package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true},
		{" 2.50 ", "2.5", true},
		{"50", "50", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "3.10", "c": null}`), &v))
	assert.Equal(t, "12.5", v.A.String())
	assert.Equal(t, "3.1", v.B.String())
	assert.True(t, v.C.IsZero())

	out, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{NewMoney("50.25")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 50.25}`, string(out))
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney("10.50")
	b := NewMoney("2.25")
	assert.Equal(t, "12.75", a.Add(b).String())
	assert.Equal(t, "8.25", a.Sub(b).String())
	assert.Equal(t, "-2.25", Money{}.Sub(b).String())
}
