package server

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/auth"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/wire"
)

const connDeadline = 30 * time.Second

// handleConn drives one connection through ACCEPT -> (TLS) -> READ_META ->
// AUTH -> DISPATCH -> reply -> END. Every connection handles exactly one
// request/response pair and closes.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	connID := uuid.New().String()
	log := s.log.With("conn_id", connID, "remote", conn.RemoteAddr())

	conn.SetDeadline(time.Now().Add(connDeadline))

	if s.tlsConfig != nil {
		tconn := tls.Server(conn, s.tlsConfig)
		if err := tconn.HandshakeContext(ctx); err != nil {
			log.Warn("tls handshake failed", "err", err)
			return
		}
		conn = tconn
	}

	meta, body, err := wire.ReadFrame(conn)
	if err != nil {
		log.Warn("read frame", "err", err)
		s.writeError(conn, log, err)
		return
	}
	meta.Type = wire.ParseMsgType(string(meta.Type))
	log.Info("request", "type", meta.Type, "user", meta.User.Name)

	if meta.Type.NeedsBody() && len(body) == 0 {
		s.writeError(conn, log, apperr.New(apperr.InvalidRequest, "missing container payload"))
		return
	}

	if meta.Type == wire.CreateUser {
		s.handleCreateUser(ctx, conn, log, meta)
		return
	}

	user, authErr := s.authenticate(ctx, meta)
	if authErr != nil {
		s.writeError(conn, log, authErr)
		return
	}

	s.dispatch(ctx, conn, log, meta, body, user)
}

// authenticate resolves the user named in meta and checks their password
// (minus the CREATE_USER special case, which the caller handles before
// ever calling authenticate).
func (s *Server) authenticate(ctx context.Context, meta wire.MetaData) (*job.User, error) {
	u, err := s.gw.GetUser(ctx, meta.User.Name)
	if err != nil {
		return nil, err
	}
	if !u.CanAuthenticate() {
		return nil, apperr.New(apperr.Auth, "user is blocked")
	}
	if !auth.Verify(meta.User.Password, u.Salt, u.PasswordHash) {
		return nil, apperr.New(apperr.Auth, "wrong password")
	}
	return u, nil
}

func (s *Server) handleCreateUser(ctx context.Context, conn net.Conn, log *slog.Logger, meta wire.MetaData) {
	if _, err := s.gw.GetUser(ctx, meta.User.Name); err == nil {
		s.writeError(conn, log, apperr.New(apperr.UserCreation, "User already exists."))
		return
	} else if apperr.KindOf(err) != apperr.Auth {
		// GetUser reports an unknown name as apperr.Auth, per its own AUTH-path
		// convention; anything else here is a real lookup failure.
		s.writeError(conn, log, err)
		return
	}

	hash, salt, err := auth.Hash(meta.User.Password)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	if _, err := s.gw.CreateUser(ctx, meta.User.Name, hash, salt, job.RoleUser); err != nil {
		s.writeError(conn, log, err)
		return
	}
	s.writeOK(conn, log, wire.CreateUser)
}

// dispatch routes a normalized message type to its handler. meta.Type has
// already been through wire.ParseMsgType, so anything unrecognized reaches
// here as wire.NewJob.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, log *slog.Logger, meta wire.MetaData, body []byte, user *job.User) {
	switch meta.Type {
	case wire.Auth:
		s.writeOK(conn, log, wire.Auth)
	case wire.AvailableHandlers:
		s.handleAvailableHandlers(conn, log)
	case wire.Status:
		s.handleStatus(ctx, conn, log, user)
	case wire.Result:
		s.handleResult(ctx, conn, log, body, user)
	case wire.AbortJob:
		s.handleAbortJob(ctx, conn, log, body, user)
	case wire.DeleteJob:
		s.handleDeleteJob(ctx, conn, log, body, user)
	case wire.OriginGraph:
		s.handleOriginGraph(ctx, conn, log, body, user)
	default:
		s.handleNewJob(ctx, conn, log, meta, body, user)
	}
}
