// Package client implements a single-connection convenience wrapper
// around the wire protocol: one method per request kind, each writing a
// request and blocking for its response.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/wire"
)

// Client owns one TCP connection to a scheduler server.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Dial opens a connection to addr:port.
func Dial(addr string, port int) (*Client, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, fmt.Errorf("client: dial %s:%d: %w", addr, port, err)
	}
	return &Client{conn: conn, timeout: 10 * time.Second}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// send writes one encoded request and reads until one full response has
// been decoded. Per spec, the original reads once and retries once on an
// empty read; this loop generalizes that into "keep reading until a full
// message decodes or the connection closes".
func (c *Client) send(req wire.Message) (wire.Message, error) {
	data, err := wire.Encode(req)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(data); err != nil {
		return nil, fmt.Errorf("client: write: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	buf := make([]byte, 64*1024)
	total := 0
	emptyReads := 0
	for {
		n, err := c.conn.Read(buf[total:])
		if n == 0 {
			if err != nil {
				return nil, fmt.Errorf("client: read: %w", err)
			}
			emptyReads++
			if emptyReads > 1 {
				return nil, fmt.Errorf("client: read: connection produced no data")
			}
			continue
		}
		total += n
		msg, decodeErr := wire.Decode(buf[:total])
		if decodeErr == nil {
			return msg, nil
		}
		if err != nil {
			return nil, fmt.Errorf("client: read: %w", err)
		}
	}
}

// QuitServer asks the server to stop.
func (c *Client) QuitServer() (wire.Message, error) {
	return c.send(&wire.Quit{})
}

// UpdateServer triggers a callback registry reload, optionally restricted
// to a single module name.
func (c *Client) UpdateServer(moduleName string) (wire.Message, error) {
	return c.send(&wire.Update{ModuleName: moduleName})
}

// RequestSchedules asks for the set of currently running schedules.
func (c *Client) RequestSchedules() (*wire.ListSchedules, error) {
	resp, err := c.send(&wire.ListSchedules{})
	if err != nil {
		return nil, err
	}
	list, ok := resp.(*wire.ListSchedules)
	if !ok {
		return nil, unexpectedResponse(resp)
	}
	return list, nil
}

// RunCommand invokes a registered callback once.
func (c *Client) RunCommand(callbackName string, args []any, kwargs map[string]any) (wire.Message, error) {
	return c.send(&wire.RunCommand{CallbackName: callbackName, Args: args, Kwargs: kwargs})
}

// ScheduleCommand installs a new running schedule bound to a callback.
func (c *Client) ScheduleCommand(name, callbackName string, sched wire.ScheduleDTO, args []any, kwargs map[string]any) (wire.Message, error) {
	return c.send(&wire.ScheduleCommand{
		Name: name, CallbackName: callbackName, Schedule: sched, Args: args, Kwargs: kwargs,
	})
}

// StopSchedule removes a running schedule by name.
func (c *Client) StopSchedule(name string) (wire.Message, error) {
	return c.send(&wire.StopSchedule{Name: name})
}

func unexpectedResponse(resp wire.Message) error {
	if errMsg, ok := resp.(*wire.ErrorMsg); ok {
		return fmt.Errorf("client: server error: %s", errMsg.Text)
	}
	return fmt.Errorf("client: unexpected response kind %q", resp.Kind())
}
