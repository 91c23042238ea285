package bank

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lukas-hradil/p2p-bank/pkg/config"
	"lukas-hradil/p2p-bank/pkg/discovery"
	"lukas-hradil/p2p-bank/pkg/monitor"
	"lukas-hradil/p2p-bank/pkg/store"
)

const readChunkSize = 1024

// BankServer is one node of the P2P banking network: it accepts client
// connections, runs each one in its own goroutine and answers the line
// protocol, forwarding commands for accounts owned by other banks.
type BankServer struct {
	cfg       config.Config
	store     store.AccountStore
	handler   *CommandHandler
	Forwarder *Forwarder
	log       *zap.SugaredLogger

	listener   net.Listener
	advertiser *discovery.Advertiser

	connLock sync.Mutex
	conns    map[net.Conn]struct{}

	quitCh    chan struct{}
	closeOnce sync.Once
}

func NewBankServer(cfg config.Config, st store.AccountStore, log *zap.SugaredLogger) *BankServer {
	fw := NewForwarder(cfg.Timeout, log)
	s := &BankServer{
		cfg:        cfg,
		store:      st,
		Forwarder:  fw,
		log:        log,
		advertiser: discovery.NewAdvertiser(),
		conns:      make(map[net.Conn]struct{}),
		quitCh:     make(chan struct{}),
	}
	s.handler = NewCommandHandler(cfg.Host, st, fw, log)

	log.Infof("[BankServer] initialized with address: %s:%d", cfg.Host, cfg.Port)
	return s
}

// Start binds the listening socket and launches the accept loop. It returns
// once the node is accepting connections.
func (s *BankServer) Start() error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("failed to start listening: %w", err)
	}
	s.listener = ln

	s.log.Infof("[BankServer] P2P bank node started at %s", ln.Addr())

	s.advertise()
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, valid after Start.
func (s *BankServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// advertise announces the node over mDNS. Failure is logged and ignored;
// the protocol does not depend on discovery.
func (s *BankServer) advertise() {
	port := s.cfg.Port
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	meta := map[string]string{
		"version": "1.0.0",
		"type":    "bank-node",
		"bank":    s.cfg.Host,
	}
	if err := s.advertiser.Start("", port, meta); err != nil {
		s.log.Errorf("[BankServer] failed to start mDNS advertisement: %v", err)
	} else {
		s.log.Infof("[BankServer] mDNS advertisement started on port %d", port)
	}
}

func (s *BankServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quitCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Errorf("[BankServer] accept error: listen=%s err=%v", s.listener.Addr(), err)
			continue
		}

		s.trackConn(conn)
		go func() {
			defer s.untrackConn(conn)
			s.handleConn(conn)
		}()
	}
}

func (s *BankServer) trackConn(conn net.Conn) {
	s.connLock.Lock()
	s.conns[conn] = struct{}{}
	s.connLock.Unlock()
}

func (s *BankServer) untrackConn(conn net.Conn) {
	s.connLock.Lock()
	delete(s.conns, conn)
	s.connLock.Unlock()
}

// handleConn owns one client session: it accumulates bytes, extracts
// newline-terminated commands in arrival order and answers each one. The
// inactivity deadline resets after every read; a processing budget is
// enforced around each dispatched command.
func (s *BankServer) handleConn(conn net.Conn) {
	defer conn.Close()
	monitor.ConnOpened()
	defer monitor.ConnClosed()

	remote := conn.RemoteAddr().String()
	clientIP, _, err := net.SplitHostPort(remote)
	if err != nil {
		clientIP = remote
	}

	s.log.Infof("[BankServer] client connected: %s", remote)
	defer s.log.Infof("[BankServer] client disconnected: %s", remote)

	ctx := context.Background()
	var pending []byte
	buf := make([]byte, readChunkSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ClientTimeout)); err != nil {
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			var writeErr error
			pending, writeErr = s.dispatchLines(ctx, conn, pending, clientIP, remote)
			if writeErr != nil {
				s.log.Errorf("[BankServer] write error to %s: %v", remote, writeErr)
				return
			}
		}

		if err != nil {
			var nerr net.Error
			switch {
			case errors.As(err, &nerr) && nerr.Timeout():
				s.log.Errorf("[BankServer] client %s timed out, closing connection", remote)
				s.writeLine(conn, "ER Connection timed out")
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				// peer went away, nothing to report
			default:
				s.log.Errorf("[BankServer] error communicating with %s: %v", remote, err)
				s.writeLine(conn, "ER Internal server error")
			}
			return
		}
	}
}

// dispatchLines processes every complete line in pending and returns the
// leftover bytes of the last unterminated line.
func (s *BankServer) dispatchLines(ctx context.Context, conn net.Conn, pending []byte, clientIP, remote string) ([]byte, error) {
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			return pending, nil
		}

		command := strings.TrimSpace(string(pending[:idx]))
		pending = pending[idx+1:]

		// Empty lines get no response at all
		if command == "" {
			continue
		}

		s.log.Infof("[BankServer] received command from %s: %s", remote, command)

		start := time.Now()
		response := s.handler.Process(ctx, command, clientIP)
		if time.Since(start) > s.cfg.Timeout {
			s.log.Errorf("[BankServer] command timed out: %s", command)
			response = "ER Processing timeout"
		}
		monitor.RecordCommand()

		if err := s.writeLine(conn, response); err != nil {
			return nil, err
		}
	}
}

func (s *BankServer) writeLine(conn net.Conn, response string) error {
	_, err := conn.Write([]byte(response + "\n"))
	return err
}

// GetStatus summarizes the node for the interactive shell.
func (s *BankServer) GetStatus() string {
	ctx := context.Background()

	status := fmt.Sprintf("Bank node running on: %s:%d\n", s.cfg.Host, s.cfg.Port)

	s.connLock.Lock()
	status += fmt.Sprintf("Open connections: %d\n", len(s.conns))
	s.connLock.Unlock()

	count, err := s.store.Count(ctx)
	if err != nil {
		return status + fmt.Sprintf("Store unavailable: %v\n", err)
	}
	total, err := s.store.TotalBalance(ctx)
	if err != nil {
		return status + fmt.Sprintf("Store unavailable: %v\n", err)
	}

	status += fmt.Sprintf("Accounts: %d\n", count)
	status += fmt.Sprintf("Total balance: %d\n", total)
	return status
}

// ListAccounts returns every local account, ordered by number.
func (s *BankServer) ListAccounts() ([]store.Account, error) {
	return s.store.List(context.Background())
}

// Stop closes the listener, the mDNS advertisement and every open client
// connection. Safe to call more than once.
func (s *BankServer) Stop() {
	s.closeOnce.Do(func() {
		close(s.quitCh)
		s.advertiser.Stop()
		if s.listener != nil {
			s.listener.Close()
		}

		s.connLock.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.connLock.Unlock()
	})
}
