package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFee(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int64
	}{
		{name: "numeric fee", raw: `250`, expected: 250},
		{name: "numeric string fee", raw: `"250"`, expected: 250},
		{name: "free token lowercase", raw: `"free"`, expected: 0},
		{name: "free token mixed case", raw: `"Free"`, expected: 0},
		{name: "zero", raw: `0`, expected: 0},
		{name: "negative clamps to zero", raw: `-5`, expected: 0},
		{name: "unparsable string", raw: `"tbd"`, expected: 0},
		{name: "unparsable object", raw: `{"amount":250}`, expected: 0},
		{name: "empty", raw: ``, expected: 0},
		{name: "null", raw: `null`, expected: 0},
		{name: "padded numeric string", raw: `" 500 "`, expected: 500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeFee(json.RawMessage(tc.raw)))
		})
	}
}

func TestEventApiResponseToFeeInfo(t *testing.T) {
	raw := `{"id":"evt-1","name":"Swaranjali","type":"cultural","fee":"free","qr_image":"qr/swaranjali.png"}`

	var resp EventApiResponse
	err := json.Unmarshal([]byte(raw), &resp)
	assert.NoError(t, err)

	info := resp.ToFeeInfo()
	assert.Equal(t, "evt-1", info.Id)
	assert.Equal(t, "Swaranjali", info.Name)
	assert.Equal(t, int64(0), info.Fee)
	assert.Equal(t, "qr/swaranjali.png", info.QrImage)
}
