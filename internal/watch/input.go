package watch

import (
	"bufio"
	"context"
	"io"
	"strings"
)

var quitCommands = map[string]struct{}{
	"q":    {},
	"quit": {},
	"exit": {},
}

// IsQuitCommand reports whether line asks watch mode to stop.
func IsQuitCommand(line string) bool {
	_, ok := quitCommands[strings.ToLower(strings.TrimSpace(line))]
	return ok
}

// readQuit scans r line by line until a quit command arrives, input ends, or
// ctx is cancelled. The blocking read itself cannot be interrupted, so after
// cancellation the goroutine lingers until the next line or EOF.
func (c *Controller) readQuit(ctx context.Context, r io.Reader, trigger func(event)) {
	defer c.recoverFault(trigger)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if IsQuitCommand(scanner.Text()) {
			trigger(event{reason: ReasonQuit})
			return
		}
	}
}
