package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "milliseconds", input: "250ms", expected: 250 * time.Millisecond},
		{name: "seconds", input: "30s", expected: 30 * time.Second},
		{name: "compound", input: "1h30m45s", expected: time.Hour + 30*time.Minute + 45*time.Second},
		{name: "zero", input: "0s", expected: 0},
		{name: "missing unit", input: "100", wantErr: true},
		{name: "unknown unit", input: "100x", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Duration)
		})
	}
}

func TestDuration_ConfigFormats(t *testing.T) {
	t.Parallel()

	type poll struct {
		Interval Duration `json:"interval" yaml:"interval"`
	}

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(poll{Interval: NewDuration(5 * time.Minute)})
		require.NoError(t, err)
		require.JSONEq(t, `{"interval":"5m0s"}`, string(data))

		var decoded poll
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, 5*time.Minute, decoded.Interval.Duration)

		require.Error(t, json.Unmarshal([]byte(`{"interval":"soon"}`), &decoded))
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var decoded poll
		require.NoError(t, yaml.Unmarshal([]byte("interval: 250ms\n"), &decoded))
		assert.Equal(t, 250*time.Millisecond, decoded.Interval.Duration)

		data, err := yaml.Marshal(decoded)
		require.NoError(t, err)

		var again poll
		require.NoError(t, yaml.Unmarshal(data, &again))
		assert.Equal(t, decoded.Interval, again.Interval)
	})
}

func TestDuration_JSONSchema(t *testing.T) {
	t.Parallel()

	schema := Duration{}.JSONSchema()

	require.NotNil(t, schema)
	assert.Equal(t, "string", schema.Type)
	assert.Equal(t, "Duration", schema.Title)
	assert.Contains(t, schema.Description, "Duration expressed in units")
	assert.Contains(t, schema.Examples, "1m")
	assert.Contains(t, schema.Examples, "300ms")
}
