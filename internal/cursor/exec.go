package cursor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ToolQuerier shells out to an external pointer tool whose stdout is
// KEY=VALUE lines, one per line.
type ToolQuerier struct {
	Binary string
	Args   []string
}

// NewXdotoolQuerier returns the default external backend,
// `xdotool getmouselocation --shell`.
func NewXdotoolQuerier() *ToolQuerier {
	return &ToolQuerier{Binary: "xdotool", Args: []string{"getmouselocation", "--shell"}}
}

func (q *ToolQuerier) QueryPointer(ctx context.Context) (int, int, error) {
	cmd := exec.CommandContext(ctx, q.Binary, q.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return 0, 0, fmt.Errorf("%s: %w", q.Binary, err)
		}
		return 0, 0, fmt.Errorf("%s: %w: %s", q.Binary, err, msg)
	}
	return parseShellOutput(stdout.String())
}

var _ Querier = (*ToolQuerier)(nil)

// parseShellOutput extracts X= and Y= from KEY=VALUE lines. Other keys the
// tool prints (SCREEN, WINDOW) are ignored.
func parseShellOutput(out string) (int, int, error) {
	var (
		x, y         int
		haveX, haveY bool
	)
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "X":
			n, err := strconv.Atoi(value)
			if err != nil {
				return 0, 0, fmt.Errorf("parse X %q: %w", value, err)
			}
			x, haveX = n, true
		case "Y":
			n, err := strconv.Atoi(value)
			if err != nil {
				return 0, 0, fmt.Errorf("parse Y %q: %w", value, err)
			}
			y, haveY = n, true
		}
	}
	if !haveX || !haveY {
		return 0, 0, errors.New("pointer output missing X or Y")
	}
	return x, y, nil
}
