package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/internal"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// Gateway is the slice of store.Gateway the Client I/O Server depends on.
// It is defined here, not in store, so tests can supply a fake without
// importing the database driver stack.
type Gateway interface {
	CreateUser(ctx context.Context, name string, passwordHash, salt []byte, role job.Role) (int64, error)
	GetUser(ctx context.Context, name string) (*job.User, error)
	AddJob(ctx context.Context, userID int64, handlerType, jobName string, reqType job.DataType, request []byte) (int64, error)
	GetJobEntries(ctx context.Context, userID int64) ([]*job.Job, error)
	ResolveJobEntry(ctx context.Context, jobID int64) (*job.Job, error)
	GetRequestData(ctx context.Context, jobID int64) ([]byte, error)
	GetResponseDataRaw(ctx context.Context, jobID int64) ([]byte, error)
	DeleteJob(ctx context.Context, jobID int64) error
}

// Scheduler is the slice of scheduler.Scheduler the Client I/O Server
// depends on, used by the ABORT_JOB and DELETE_JOB paths.
type Scheduler interface {
	CancelJob(ctx context.Context, jobID, userID int64) error
}

// Config configures a Server.
type Config struct {
	// Addr is the TCP address to listen on, e.g. ":4711".
	Addr string
	// TLSConfig, if non-nil, wraps every accepted connection in a TLS
	// server handshake before framing begins.
	TLSConfig *tls.Config
	// Concurrency bounds the number of connections handled at once;
	// additional accepted connections queue behind it.
	Concurrency int
	// AcceptQueue bounds how many accepted-but-not-yet-handled
	// connections may queue before Accept itself is held up.
	AcceptQueue int
}

// Server is the Client I/O Server: the TCP front door job submissions,
// status polls and result fetches all come through.
type Server struct {
	internal.LifecycleBase

	gw  Gateway
	sch Scheduler
	log *slog.Logger

	addr      string
	tlsConfig *tls.Config

	listener net.Listener
	pool     *internal.WorkerPool[net.Conn]
}

// New creates a Server bound to gw and sch. The Server is not started
// automatically; call Start.
func New(gw Gateway, sch Scheduler, config Config, log *slog.Logger) *Server {
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 64
	}
	queue := config.AcceptQueue
	if queue <= 0 {
		queue = concurrency
	}
	return &Server{
		gw:        gw,
		sch:       sch,
		log:       log,
		addr:      config.Addr,
		tlsConfig: config.TLSConfig,
		pool:      internal.NewWorkerPool[net.Conn](concurrency, queue, log),
	}
}

// Start binds the listener and begins accepting connections. It returns
// internal.ErrDoubleStarted if already running.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TryStart(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.TryStop(0, func() internal.DoneChan { d := make(internal.DoneChan); close(d); return d })
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.pool.Start(ctx, s.handleConn)
	go s.acceptLoop(ctx)
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept", "err", err)
			continue
		}
		if !s.pool.Push(conn) {
			conn.Close()
			return
		}
	}
}

// Stop closes the listener and waits up to timeout for in-flight
// connections to finish.
func (s *Server) Stop(timeout time.Duration) error {
	return s.TryStop(timeout, func() internal.DoneChan {
		if s.listener != nil {
			s.listener.Close()
		}
		return s.pool.Stop()
	})
}

// Addr returns the address the listener is bound to, or "" if Start has not
// been called. Useful in tests that bind to ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
