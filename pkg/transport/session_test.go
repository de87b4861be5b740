package transport_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"stepviz/pkg/transport"
)

const timeout = 2 * time.Second

// reply is either an acknowledgement or a notification
type reply struct {
	ID      json.RawMessage `json:"id"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t       *testing.T
	conn    net.Conn
	replies chan reply
	seen    []reply
}

func connect(t *testing.T) (*client, *transport.Session, chan error) {
	t.Helper()
	server, conn := net.Pipe()
	s := transport.NewSession(server, log.New(io.Discard))

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()

	c := &client{t: t, conn: conn, replies: make(chan reply, 256)}
	go func() {
		defer close(c.replies)
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			var r reply
			if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
				t.Errorf("bad reply %q: %v", scanner.Text(), err)
				return
			}
			c.replies <- r
		}
	}()
	t.Cleanup(func() { conn.Close() })
	return c, s, done
}

func (c *client) send(line string) {
	c.t.Helper()
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		c.t.Fatalf("send: %v", err)
	}
}

// until reads replies until match accepts one
func (c *client) until(match func(reply) bool) reply {
	c.t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case r, ok := <-c.replies:
			if !ok {
				c.t.Fatal("connection closed")
			}
			c.seen = append(c.seen, r)
			if match(r) {
				return r
			}
		case <-deadline:
			c.t.Fatal("timed out waiting for a reply")
		}
	}
}

func (c *client) ack(id string) reply {
	return c.until(func(r reply) bool {
		got := string(r.ID)
		if got == "" {
			got = "null"
		}
		return r.Event == "" && got == id
	})
}

func (c *client) event(name string) reply {
	return c.until(func(r reply) bool { return r.Event == name })
}

func (c *client) count(event string) int {
	n := 0
	for _, r := range c.seen {
		if r.Event == event {
			n++
		}
	}
	return n
}

func TestSessionRunsProgram(t *testing.T) {
	c, s, _ := connect(t)

	c.send(`{"id":1,"command":"parse_code","params":{"code":"numbers = []\nfor i in range(n):\n    numbers.append(i)\n","inputs":"n = 3"}}`)
	parsed := c.event("code_parsed")
	if parsed.Session != s.ID.String() {
		t.Errorf("session = %q, want %q", parsed.Session, s.ID)
	}
	if ack := c.ack("1"); !ack.Success {
		t.Fatalf("parse_code: %s", ack.Message)
	}

	c.send(`{"id":2,"command":"start","params":{"step_mode":false}}`)
	if ack := c.ack("2"); !ack.Success {
		t.Fatalf("start: %s", ack.Message)
	}
	completed := c.event("execution_completed")

	var data struct {
		StepCount int `json:"step_count"`
	}
	if err := json.Unmarshal(completed.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.StepCount != c.count("execution_step") {
		t.Errorf("step_count %d, saw %d steps", data.StepCount, c.count("execution_step"))
	}
	if got := c.count("iteration_update"); got != 3 {
		t.Errorf("iteration_update = %d, want 3", got)
	}
	if got := c.count("iteration_end"); got != 1 {
		t.Errorf("iteration_end = %d, want 1", got)
	}
	if got := c.count("animation"); got != 3 {
		t.Errorf("animation = %d, want 3", got)
	}

	c.send(`{"id":3,"command":"get_state"}`)
	state := c.ack("3")
	var report struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(state.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.State != "completed" {
		t.Errorf("state = %q", report.State)
	}
}

func TestSessionStepMode(t *testing.T) {
	c, _, _ := connect(t)

	c.send(`{"id":"a","command":"parse_code","params":{"code":"x = 1\ny = 2\n"}}`)
	c.ack(`"a"`)
	c.send(`{"id":"b","command":"start","params":{"step_mode":true}}`)
	c.ack(`"b"`)
	c.event("execution_step")

	c.send(`{"id":"c","command":"step"}`)
	if ack := c.ack(`"c"`); !ack.Success {
		t.Fatalf("step: %s", ack.Message)
	}
	c.event("execution_completed")
	if got := c.count("execution_step"); got != 2 {
		t.Errorf("saw %d steps, want 2", got)
	}
}

func TestSessionRejectsBadRequests(t *testing.T) {
	c, _, _ := connect(t)

	tests := []struct {
		line string
		id   string
	}{
		{`{"id":1,"command":"fly"}`, "1"},
		{`{"id":2,"command":"start","params":{"step_mode":"yes"}}`, "2"},
		{`{"id":3,"command":"pause"}`, "3"},
		{`{"id":4,"command":"set_speed","params":{"delay":-1}}`, "4"},
		{`not json`, "null"},
	}
	for _, tt := range tests {
		c.send(tt.line)
		if ack := c.ack(tt.id); ack.Success || ack.Message == "" {
			t.Errorf("%s: ack = %+v", tt.line, ack)
		}
	}
}

func TestSessionEndsOnDisconnect(t *testing.T) {
	c, s, done := connect(t)

	c.send(`{"id":1,"command":"parse_code","params":{"code":"n = 0\nwhile True:\n    n += 1\n"}}`)
	c.ack("1")
	c.send(`{"id":2,"command":"start","params":{"step_mode":true}}`)
	c.ack("2")
	c.event("execution_step")

	c.conn.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(timeout):
		t.Fatal("session did not end")
	}

	select {
	case <-s.Controller().Done():
	case <-time.After(timeout):
		t.Fatal("worker still running after disconnect")
	}
}
