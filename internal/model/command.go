package model

import (
	"fmt"
	"strings"
)

// Command is a player or timer instruction applied to the active shape
type Command uint8

const (
	CommandLeft Command = iota + 1
	CommandRight
	CommandDown
	CommandRotate
	CommandFinish
)

var commandNames = map[Command]string{
	CommandLeft:   "left",
	CommandRight:  "right",
	CommandDown:   "down",
	CommandRotate: "rotate",
	CommandFinish: "finish",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// ParseCommand converts a command name to a Command
func ParseCommand(name string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left":
		return CommandLeft, nil
	case "right":
		return CommandRight, nil
	case "down":
		return CommandDown, nil
	case "rotate":
		return CommandRotate, nil
	case "finish":
		return CommandFinish, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

// Valid reports whether c is one of the known commands
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// MarshalText implements encoding.TextMarshaler
func (c Command) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Command) UnmarshalText(text []byte) error {
	parsed, err := ParseCommand(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
