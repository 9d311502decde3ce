package agent_buffer

import (
	"errors"
	"fmt"
)

// Contract violations. These are raised with panic because registration happens exhaustively
// during configuration, so hitting one at runtime means the caller is wrong.
var (
	ErrUnknownAgentState    = errors.New("agent_buffer: unknown agent state")
	ErrDuplicateAgentState  = errors.New("agent_buffer: agent state already registered")
	ErrInvalidAttributeSpec = errors.New("agent_buffer: invalid attribute spec")
	ErrSourceMismatch       = errors.New("agent_buffer: source count does not match slot count")
	ErrInvalidSize          = errors.New("agent_buffer: invalid size")
)

// GPU/driver failures. There is no retry policy; they are raised with panic as well.
var (
	ErrBufferAllocation = errors.New("agent_buffer: interop buffer allocation failed")
	ErrBufferCopy       = errors.New("agent_buffer: device copy failed")
	ErrBufferBind       = errors.New("agent_buffer: buffer bind failed")
)

// fatalf panics with an error wrapping sentinel, so a recover site can still errors.Is the value.
func fatalf(sentinel error, format string, args ...any) {
	panic(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

// fatal panics with err if it is non-nil.
func fatal(err error) {
	if err != nil {
		panic(err)
	}
}
