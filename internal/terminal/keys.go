// Package terminal plays a game over a character stream such as a local
// tty or an SSH channel.
package terminal

import "github.com/mcoot/blockfall/internal/model"

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

var arrows = map[byte]model.Command{
	'A': model.CommandRotate,
	'B': model.CommandDown,
	'C': model.CommandRight,
	'D': model.CommandLeft,
}

var letters = map[byte]model.Command{
	'h': model.CommandLeft,
	'a': model.CommandLeft,
	'l': model.CommandRight,
	'd': model.CommandRight,
	'j': model.CommandDown,
	's': model.CommandDown,
	' ': model.CommandDown,
	'k': model.CommandRotate,
	'w': model.CommandRotate,
	'q': model.CommandFinish,
	'Q': model.CommandFinish,
}

// DecodeKeys converts raw terminal input into commands. Arrow keys in
// either cursor mode, vi and WASD letters are recognised; a bare escape,
// q or Ctrl-C finishes the game. Anything else is ignored.
func DecodeKeys(input []byte) []model.Command {
	cmds, _ := decode(input, true)
	return cmds
}

// decode converts input into commands and returns how many bytes it used.
// Unless final is set, a trailing escape or unfinished escape sequence is
// left unused so the next read can complete it.
func decode(input []byte, final bool) ([]model.Command, int) {
	var cmds []model.Command
	for i := 0; i < len(input); i++ {
		b := input[i]
		switch {
		case b == keyEsc:
			rest := len(input) - i - 1
			if rest >= 1 && (input[i+1] == '[' || input[i+1] == 'O') {
				if rest == 1 {
					// An escape sequence is never a finish, even if cut short
					return cmds, i
				}
				if cmd, ok := arrows[input[i+2]]; ok {
					cmds = append(cmds, cmd)
				}
				i += 2
				continue
			}
			if rest == 0 && !final {
				return cmds, i
			}
			cmds = append(cmds, model.CommandFinish)
		case b == keyCtrlC:
			cmds = append(cmds, model.CommandFinish)
		default:
			if cmd, ok := letters[b]; ok {
				cmds = append(cmds, cmd)
			}
		}
	}
	return cmds, len(input)
}

// keyDecoder decodes a stream of reads, carrying a split escape sequence
// over to the next read
type keyDecoder struct {
	pending []byte
}

// feed decodes the next chunk of input
func (d *keyDecoder) feed(chunk []byte) []model.Command {
	data := append(d.pending, chunk...)
	cmds, used := decode(data, false)
	d.pending = append([]byte(nil), data[used:]...)
	return cmds
}

// waiting reports whether a partial escape sequence is held back
func (d *keyDecoder) waiting() bool {
	return len(d.pending) > 0
}

// flush decodes whatever is held back as if no more input will follow
func (d *keyDecoder) flush() []model.Command {
	cmds, _ := decode(d.pending, true)
	d.pending = nil
	return cmds
}
