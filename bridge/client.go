package bridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to a running overlay over its Unix socket. Each call opens a
// fresh connection.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a Client for the socket at sockPath.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath, timeout: 10 * time.Second}
}

// Invoke runs a command in the running overlay and returns its raw JSON
// result.
func (c *Client) Invoke(name string, args json.RawMessage) (json.RawMessage, error) {
	resp, err := c.send(Request{
		Type:      "Invoke",
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge request failed: %w", err)
	}
	if resp.Type == "Error" {
		return nil, fmt.Errorf("bridge error (code %d): %s", resp.Code, resp.Message)
	}
	return resp.Result, nil
}

// Commands lists the commands the running overlay serves.
func (c *Client) Commands() ([]string, error) {
	resp, err := c.send(Request{Type: "Commands"})
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	if resp.Type == "Error" {
		return nil, fmt.Errorf("bridge error: %s", resp.Message)
	}
	return resp.Commands, nil
}

// Ping checks that an overlay is listening.
func (c *Client) Ping() error {
	resp, err := c.send(Request{Type: "Ping"})
	if err != nil {
		return err
	}
	if resp.Type != "Pong" {
		return fmt.Errorf("unexpected response %q", resp.Type)
	}
	return nil
}

// send opens a connection, writes the request, reads one response, and closes.
func (c *Client) send(req Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to overlay at %s: %w (is chatoverlay running?)", c.sockPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read failed: %w", err)
		}
		return nil, fmt.Errorf("bridge closed connection")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	return &resp, nil
}
