package payment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateUnmarshal(t *testing.T) {
	var in CreateInput
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-01"}`), &in))
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), in.Date.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-01T10:30:00Z"}`), &in))
	require.Equal(t, 10, in.Date.Hour())

	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &in))
	require.True(t, in.Date.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"date":"01/03/2024"}`), &in))
}
