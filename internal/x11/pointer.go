// Package x11 provides the native pointer-query backend used when the
// compositor runs on X11 or XWayland exposes a usable root pointer.
package x11

import (
	"context"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/scratchd/scratchd/internal/cursor"
)

// Conn manages the X server connection and the root window handle.
type Conn struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

// Connect opens the display named by the environment (DISPLAY).
func Connect() (*Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X display: %w", err)
	}
	return &Conn{xu: xu, root: xu.RootWin()}, nil
}

// QueryPointer returns the pointer position in root coordinates. The X
// round trip has no native deadline, so the reply is collected on a
// goroutine and raced against the context.
func (c *Conn) QueryPointer(ctx context.Context) (int, int, error) {
	type reply struct {
		x, y int
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		r, err := xproto.QueryPointer(c.xu.Conn(), c.root).Reply()
		if err != nil {
			ch <- reply{err: fmt.Errorf("query pointer: %w", err)}
			return
		}
		ch <- reply{x: int(r.RootX), y: int(r.RootY)}
	}()
	select {
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	case r := <-ch:
		return r.x, r.y, r.err
	}
}

// Close disconnects from the X server.
func (c *Conn) Close() error {
	if c.xu != nil {
		c.xu.Conn().Close()
	}
	return nil
}

var _ cursor.Querier = (*Conn)(nil)
