package wire

import (
	"bufio"
	"net"
	"strings"
	"sync"
)

// conn wraps a raw TCP connection with line framing and a write lock, so
// the fan-out and the dispatch path can write to the same client safely.
type conn struct {
	c      net.Conn
	reader *bufio.Reader

	mu     sync.Mutex
	closed bool
}

func newConn(c net.Conn) *conn {
	return &conn{
		c:      c,
		reader: bufio.NewReaderSize(c, 4096),
	}
}

// readLine reads one frame, stripping the trailing newline.
func (c *conn) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// send writes one frame.
func (c *conn) send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.c.Write([]byte(line + "\n"))
	return err
}

func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.c.Close()
	}
}
