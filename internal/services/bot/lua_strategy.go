package bot

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/mcoot/blockfall/internal/model"
)

// DefaultLuaScript drops each piece unrotated over the lowest column
const DefaultLuaScript = `
function choose(board, shape)
  local best, lowest = 1, nil
  for col = 1, board.width - shape.width + 1 do
    local tallest = 0
    for c = col, col + shape.width - 1 do
      if board.heights[c] > tallest then
        tallest = board.heights[c]
      end
    end
    if lowest == nil or tallest < lowest then
      best, lowest = col, tallest
    end
  end
  return 0, best
end
`

const chooseFunc = "choose"

// LuaStrategy asks a Lua script where to put each piece.
//
// The script must define choose(board, shape) returning the number of
// clockwise rotations and the anchor column. board has fields width (the
// columns between the walls) and heights, indexed by grid column from 1 to
// width, holding the height of the stack in that column. shape has fields
// width, height and rows, a list of strings with "#" for each block and
// "." for each gap.
type LuaStrategy struct {
	name  string
	proto *lua.FunctionProto
}

// NewLuaStrategy compiles a script. The script is run afresh for every
// choice, so strategies may be shared between games.
func NewLuaStrategy(name, script string) (*LuaStrategy, error) {
	chunk, err := parse.Parse(strings.NewReader(script), name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}
	return &LuaStrategy{name: name, proto: proto}, nil
}

// Choose runs the script's choose function against the snapshot
func (s *LuaStrategy) Choose(ctx context.Context, snap model.Snapshot) (Placement, error) {
	if snap.Active == nil {
		return Placement{}, fmt.Errorf("%w: no active piece", model.ErrInvalidArgument)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	if err := openLibs(L); err != nil {
		return Placement{}, s.fail(err)
	}

	L.Push(L.NewFunctionFromProto(s.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return Placement{}, s.fail(err)
	}

	fn := L.GetGlobal(chooseFunc)
	if fn.Type() != lua.LTFunction {
		return Placement{}, s.fail(fmt.Errorf("%s is not defined", chooseFunc))
	}

	err := L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, boardTable(L, snap.Board), shapeTable(L, snap.Active))
	if err != nil {
		return Placement{}, s.fail(err)
	}
	rotations, column := L.Get(-2), L.Get(-1)
	L.Pop(2)

	rot, ok := rotations.(lua.LNumber)
	if !ok {
		return Placement{}, s.fail(fmt.Errorf("rotations must be a number, got %s", rotations.Type()))
	}
	col, ok := column.(lua.LNumber)
	if !ok {
		return Placement{}, s.fail(fmt.Errorf("column must be a number, got %s", column.Type()))
	}

	return Placement{Rotations: int(rot), Column: int(col)}, nil
}

func (s *LuaStrategy) fail(err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrStrategyFailed, s.name, err)
}

func openLibs(L *lua.LState) error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name))
		if err != nil {
			return err
		}
	}
	return nil
}

func boardTable(L *lua.LState, tiles [][]model.Tile) *lua.LTable {
	height := len(tiles)
	width := 0
	if height > 0 {
		width = len(tiles[0])
	}

	heights := L.NewTable()
	for col := 1; col < width-1; col++ {
		stack := 0
		for row := 0; row < height-1; row++ {
			if tiles[row][col].IsBlock() {
				stack = height - 1 - row
				break
			}
		}
		heights.RawSetInt(col, lua.LNumber(stack))
	}

	t := L.NewTable()
	L.SetField(t, "width", lua.LNumber(max(width-2, 0)))
	L.SetField(t, "height", lua.LNumber(max(height-1, 0)))
	L.SetField(t, "heights", heights)
	return t
}

func shapeTable(L *lua.LState, v *model.ShapeView) *lua.LTable {
	rows := L.NewTable()
	width := 0
	for i, line := range v.Mask {
		var sb strings.Builder
		for _, tile := range line {
			if tile == model.TileEmpty {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('#')
			}
		}
		rows.RawSetInt(i+1, lua.LString(sb.String()))
		width = max(width, len(line))
	}

	t := L.NewTable()
	L.SetField(t, "width", lua.LNumber(width))
	L.SetField(t, "height", lua.LNumber(len(v.Mask)))
	L.SetField(t, "rows", rows)
	return t
}

var _ Strategy = (*LuaStrategy)(nil)
