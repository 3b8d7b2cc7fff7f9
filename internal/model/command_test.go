package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(" Rotate ")
	require.NoError(t, err)
	assert.Equal(t, CommandRotate, cmd)

	_, err = ParseCommand("jump")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCommandJSON(t *testing.T) {
	var got struct {
		Command Command `json:"command"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"command":"down"}`), &got))
	assert.Equal(t, CommandDown, got.Command)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"down"}`, string(data))

	err = json.Unmarshal([]byte(`{"command":"jump"}`), &got)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = json.Marshal(struct{ C Command }{C: Command(42)})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCommandValid(t *testing.T) {
	assert.True(t, CommandFinish.Valid())
	assert.False(t, Command(0).Valid())
	assert.False(t, Command(42).Valid())
}
