package server

import (
	"errors"
	"log/slog"
	"net"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/wire"
)

func (s *Server) writeContainer(conn net.Conn, log *slog.Logger, t wire.MsgType, v any) {
	container, err := wire.EncodeContainer(v)
	if err != nil {
		log.Error("encode reply container", "err", err)
		return
	}
	if err := wire.WriteFrame(conn, wire.MetaData{Type: t}, container); err != nil {
		log.Warn("write reply frame", "err", err)
	}
}

func (s *Server) writeOK(conn net.Conn, log *slog.Logger, t wire.MsgType) {
	s.writeContainer(conn, log, t, wire.ResponseContainer{Status: wire.StatusOK})
}

// writeError translates err into an ERROR frame using apperr's taxonomy and
// sends it, closing out the connection's single request/response pair. The
// Kind travels in its own field, so the message text carries only the bare
// description, not apperr.Error's kind-prefixed rendering.
func (s *Server) writeError(conn net.Conn, log *slog.Logger, err error) {
	msg := wire.ErrorMessage{
		Kind:    wireErrorKind(err),
		Message: errorText(err),
	}
	container, encErr := wire.EncodeContainer(msg)
	if encErr != nil {
		log.Error("encode error container", "err", encErr)
		return
	}
	if writeErr := wire.WriteFrame(conn, wire.MetaData{Type: wire.ErrorType}, container); writeErr != nil {
		log.Warn("write error frame", "err", writeErr)
	}
}

func errorText(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// wireErrorKind maps an internal apperr Kind to the wire ErrorMessage.Kind
// tag. Auth failures (unknown user, wrong password, blocked user) surface
// as a dedicated UNAUTHORIZED tag rather than the internal AUTH kind, since
// "AUTH" on the wire is reserved for naming the AUTH step itself.
func wireErrorKind(err error) string {
	if apperr.KindOf(err) == apperr.Auth {
		return "UNAUTHORIZED"
	}
	return string(apperr.KindOf(err))
}
