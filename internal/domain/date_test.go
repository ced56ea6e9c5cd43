package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	var payload struct {
		When  Date  `json:"when"`
		Maybe *Date `json:"maybe"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"when":"2021-06-06","maybe":null}`), &payload))
	assert.Equal(t, "2021-06-06", payload.When.String())
	assert.Nil(t, payload.Maybe)

	out, err := json.Marshal(payload.When)
	require.NoError(t, err)
	assert.JSONEq(t, `"2021-06-06"`, string(out))
}

func TestDateArithmeticAcrossMonth(t *testing.T) {
	d := MustParseDate("2021-03-01")
	assert.Equal(t, "2021-02-28", d.AddDays(-1).String())
	assert.True(t, d.AddDays(-1).Before(d))
	assert.True(t, d.Equal(NewDate(2021, 3, 1)))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("06/06/2021")
	assert.Error(t, err)
}
