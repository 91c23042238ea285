package bank

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lukas-hradil/p2p-bank/pkg/monitor"
)

// Peers bind somewhere in the top of the reserved port range; there is no
// discovery service for which one, so forwarding probes them in order.
const (
	DefaultPortStart = 65525
	DefaultPortEnd   = 65535
)

// Forwarder relays one command line to the peer bank believed to own the
// target account. It probes candidate ports in ascending order under an
// overall time budget: the budget is checked before each attempt, and each
// dial/read deadline is capped by what remains of it.
type Forwarder struct {
	PortStart int
	PortEnd   int
	Budget    time.Duration
	log       *zap.SugaredLogger
}

func NewForwarder(budget time.Duration, log *zap.SugaredLogger) *Forwarder {
	return &Forwarder{
		PortStart: DefaultPortStart,
		PortEnd:   DefaultPortEnd,
		Budget:    budget,
		log:       log,
	}
}

// Forward returns the peer's response line, "ER Request timeout" when the
// budget runs out first, or "ER Peer connection failed" when every candidate
// port was tried without getting a response.
func (f *Forwarder) Forward(peerIP string, rawCommand string) string {
	start := time.Now()

	for port := f.PortStart; port <= f.PortEnd; port++ {
		remaining := f.Budget - time.Since(start)
		if remaining <= 0 {
			f.log.Errorf("[Forwarder] budget exhausted forwarding to %s: %s", peerIP, rawCommand)
			return "ER Request timeout"
		}

		addr := net.JoinHostPort(peerIP, strconv.Itoa(port))
		f.log.Infof("[Forwarder] trying %s for command: %s", addr, rawCommand)

		response, err := f.attempt(addr, rawCommand, remaining)
		if err != nil {
			monitor.RecordForwardFailure()
			f.log.Errorf("[Forwarder] attempt failed: peer=%s err=%v", addr, err)
			continue
		}

		f.log.Infof("[Forwarder] response from %s: %s", addr, response)
		return response
	}

	f.log.Errorf("[Forwarder] unable to reach peer %s on any candidate port", peerIP)
	return "ER Peer connection failed"
}

// attempt opens one connection, sends the command line and reads exactly one
// response line. The whole exchange shares a single deadline.
func (f *Forwarder) attempt(addr string, rawCommand string, timeout time.Duration) (string, error) {
	monitor.RecordForwardAttempt()

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return "", fmt.Errorf("set deadline: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", rawCommand); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	// A peer that closes right after writing may omit the final newline.
	if err != nil && line == "" {
		return "", fmt.Errorf("read: %w", err)
	}

	return strings.TrimSpace(line), nil
}
