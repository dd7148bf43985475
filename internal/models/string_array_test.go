package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringArray{"go", "web"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["go","web"]`, v)
}

func TestStringArrayScan(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  StringArray
	}{
		{"nil", nil, StringArray{}},
		{"empty string", "", StringArray{}},
		{"null literal", []byte("null"), StringArray{}},
		{"json bytes", []byte(`["a","b"]`), StringArray{"a", "b"}},
		{"json string", `["x"]`, StringArray{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringArray
			require.NoError(t, got.Scan(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad StringArray
	assert.Error(t, bad.Scan(42))
	assert.Error(t, bad.Scan("not json"))
}

func TestStringArrayMarshalJSONNil(t *testing.T) {
	b, err := json.Marshal(struct {
		Tags StringArray `json:"tags"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags":[]}`, string(b))
}
