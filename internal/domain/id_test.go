package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_JSONRoundsTripAsString(t *testing.T) {
	type payload struct {
		ID  ID  `json:"id"`
		Opt *ID `json:"opt"`
	}

	b, err := json.Marshal(payload{ID: 9007199254740993})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"9007199254740993","opt":null}`, string(b))

	var out payload
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, ID(9007199254740993), out.ID)
	assert.Nil(t, out.Opt)
}

func TestID_UnmarshalAcceptsNumbers(t *testing.T) {
	var id ID
	require.NoError(t, json.Unmarshal([]byte(`42`), &id))
	assert.Equal(t, ID(42), id)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &id))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &id))
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, ID(17), id)

	_, err = ParseID("")
	assert.Error(t, err)
}

func TestIDPtr(t *testing.T) {
	assert.Nil(t, IDPtr(0))
	require.NotNil(t, IDPtr(3))
	assert.Equal(t, ID(3), *IDPtr(3))
	assert.Equal(t, []int64{1, 2}, Int64s([]ID{1, 2}))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("email", "is required")
	assert.Equal(t, "email: is required", err.Error())
	assert.True(t, IsValidation(err))
	assert.Equal(t, "no fields", NewValidationError("", "no fields").Error())
	assert.False(t, IsValidation(ErrNotFound))
}
