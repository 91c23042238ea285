package bank

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startStubPeer runs a minimal bank peer on the given port: it answers every
// received line with response and records what it received.
func startStubPeer(t *testing.T, port int, response string) <-chan string {
	t.Helper()

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				received <- strings.TrimSpace(line)
				fmt.Fprintf(conn, "%s\n", response)
			}(conn)
		}
	}()
	return received
}

func newTestForwarder(budget time.Duration) *Forwarder {
	return NewForwarder(budget, zap.NewNop().Sugar())
}

func TestForwardSkipsDeadPortsAndReturnsFirstResponse(t *testing.T) {
	received := startStubPeer(t, 65530, "AB 250")

	f := newTestForwarder(5 * time.Second)
	f.PortStart = 65528
	f.PortEnd = 65530

	resp := f.Forward("127.0.0.1", "AB 54321/127.0.0.1")
	assert.Equal(t, "AB 250", resp)

	select {
	case line := <-received:
		assert.Equal(t, "AB 54321/127.0.0.1", line, "command must be relayed verbatim")
	case <-time.After(time.Second):
		t.Fatal("stub peer never received the command")
	}
}

func TestForwardStopsAtFirstSuccess(t *testing.T) {
	first := startStubPeer(t, 65533, "AD")
	second := startStubPeer(t, 65534, "AD")

	f := newTestForwarder(5 * time.Second)
	f.PortStart = 65533
	f.PortEnd = 65534

	resp := f.Forward("127.0.0.1", "AD 54321/127.0.0.1 10")
	assert.Equal(t, "AD", resp)

	<-first
	select {
	case line := <-second:
		t.Fatalf("later candidate port was contacted after a success: %s", line)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestForwardBudgetSpentBeforeFirstAttempt(t *testing.T) {
	// with a zero budget no connection attempt may even start
	f := newTestForwarder(0)
	f.PortStart = 65530
	f.PortEnd = 65530

	resp := f.Forward("127.0.0.1", "AB 54321/127.0.0.1")
	assert.Equal(t, "ER Request timeout", resp)
}

func TestForwardAllCandidatesUnreachable(t *testing.T) {
	f := newTestForwarder(5 * time.Second)
	f.PortStart = 65531
	f.PortEnd = 65532

	start := time.Now()
	resp := f.Forward("127.0.0.1", "AW 54321/127.0.0.1 5")
	assert.Equal(t, "ER Peer connection failed", resp)
	// refused loopback connects fail fast, well inside the budget
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestForwardDefaultPortRange(t *testing.T) {
	f := newTestForwarder(time.Second)
	assert.Equal(t, 65525, f.PortStart)
	assert.Equal(t, 65535, f.PortEnd)
}
