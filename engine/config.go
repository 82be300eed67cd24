package engine

import "github.com/wippyai/wasm-minivm/wasm"

// DefaultMaxStackDepth is the operand stack capacity used when
// Config.MaxStackDepth is not set.
const DefaultMaxStackDepth = 65536

// Config holds interpreter settings.
type Config struct {
	// Tracer, if set, is called after every executed instruction.
	Tracer Tracer

	// MaxStackDepth bounds the operand stack. Pushing past it traps with
	// StackOverflow. 0 means DefaultMaxStackDepth.
	MaxStackDepth int
}

// DefaultConfig returns the default interpreter configuration.
func DefaultConfig() Config {
	return Config{MaxStackDepth: DefaultMaxStackDepth}
}

func (c Config) stackDepth() int {
	if c.MaxStackDepth <= 0 {
		return DefaultMaxStackDepth
	}
	return c.MaxStackDepth
}

// Tracer observes execution one instruction at a time.
type Tracer func(Step)

// Step describes one executed instruction. Stack aliases the live operand
// stack and is only valid during the Tracer call.
type Step struct {
	Stack      []Value
	Instr      wasm.Instruction
	Index      int
	BlockLevel int
}
