package management

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	internalpkg "github.com/S-P-A-N-N-E-R-S/Backend-sub000/internal"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// Gateway is the slice of store.Gateway the Management Server depends on.
type Gateway interface {
	ListUsers(ctx context.Context) ([]*job.User, error)
	ResolveUserByNameOrID(ctx context.Context, s string) (*job.User, error)
	GetJobEntries(ctx context.Context, userID int64) ([]*job.Job, error)
	SetUserBlocked(ctx context.Context, userID int64, blocked bool) error
	AbortWaitingForUser(ctx context.Context, userID int64) (int64, error)
	DeleteUser(ctx context.Context, userID int64) error

	GetAllJobEntries(ctx context.Context) ([]*job.Job, error)
	ResolveJobByNameOrID(ctx context.Context, s string) (*job.Job, error)
	DeleteJob(ctx context.Context, jobID int64) error
	GetRequestData(ctx context.Context, jobID int64) ([]byte, error)
	GetResponseDataRaw(ctx context.Context, jobID int64) ([]byte, error)
}

// Scheduler is the slice of scheduler.Scheduler the Management Server
// depends on.
type Scheduler interface {
	CancelJob(ctx context.Context, jobID, userID int64) error
	CancelUserJobs(userID int64)

	SetTimeLimit(ms int64)
	TimeLimit() int64
	SetResourceLimit(bytes int64)
	ResourceLimit() int64
	SetProcessLimit(limit int)
	ProcessLimit() int
	SetSleep(d time.Duration)
	Sleep() time.Duration
}

// DefaultSocketPath is the well-known path the server binds by default.
// The management CLI must use the same fixed path; it is deliberately not
// a configuration key.
const DefaultSocketPath = "/tmp/spanners-management.sock"

// Config configures a Server.
type Config struct {
	// SocketPath is the well-known unixgram path the server binds and
	// listens on.
	SocketPath string
}

// Server is the local datagram-socket control plane, separate from the
// client wire protocol, that a command-line admin tool talks to.
type Server struct {
	internalpkg.LifecycleBase

	gw  Gateway
	sch Scheduler
	log *slog.Logger

	socketPath string
	conn       *net.UnixConn

	cancel context.CancelFunc
	done   internalpkg.DoneChan
}

// New creates a Server bound to gw and sch. The Server is not started
// automatically; call Start.
func New(gw Gateway, sch Scheduler, config Config, log *slog.Logger) *Server {
	return &Server{
		gw:         gw,
		sch:        sch,
		log:        log,
		socketPath: config.SocketPath,
	}
}

// Start removes any stale socket file at SocketPath, binds a unixgram
// socket there, and begins serving requests. It returns
// internalpkg.ErrDoubleStarted if already running.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TryStart(); err != nil {
		return err
	}
	_ = os.Remove(s.socketPath)
	addr := &net.UnixAddr{Name: s.socketPath, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return fmt.Errorf("listen unixgram %s: %w", s.socketPath, err)
	}
	s.conn = conn

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(internalpkg.DoneChan)
	go func() {
		defer close(s.done)
		s.serve(runCtx)
	}()
	return nil
}

func (s *Server) serve(ctx context.Context) {
	buf := make([]byte, 1<<16)
	for {
		n, addr, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("read datagram", "err", err)
			return
		}
		resp := s.handle(ctx, buf[:n])
		payload, err := json.Marshal(resp)
		if err != nil {
			s.log.Error("marshal response", "err", err)
			continue
		}
		if addr == nil {
			continue
		}
		if _, err := s.conn.WriteToUnix(payload, addr); err != nil {
			s.log.Warn("write datagram", "err", err)
		}
	}
}

func (s *Server) handle(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return malformed(err)
	}
	if req.Type == "" || req.Cmd == "" {
		return malformed(fmt.Errorf("missing type or cmd"))
	}
	switch req.Type {
	case "user":
		return s.handleUser(ctx, req)
	case "job":
		return s.handleJob(ctx, req)
	case "scheduler":
		return s.handleScheduler(req)
	default:
		return malformed(fmt.Errorf("unknown request type %q", req.Type))
	}
}

// Stop closes the socket and waits up to timeout for the serve loop to
// finish.
func (s *Server) Stop(timeout time.Duration) error {
	return s.TryStop(timeout, func() internalpkg.DoneChan {
		s.cancel()
		if s.conn != nil {
			s.conn.Close()
		}
		return s.done
	})
}
