package wire

import "fmt"

// MsgType tags a MetaData frame's purpose. Any value the server does not
// recognize is treated as NewJob for forward compatibility with future
// message types, so ParseMsgType never itself errors; an unknown string
// simply resolves to NewJob.
type MsgType string

const (
	Auth               MsgType = "AUTH"
	CreateUser         MsgType = "CREATE_USER"
	AvailableHandlers  MsgType = "AVAILABLE_HANDLERS"
	Status             MsgType = "STATUS"
	Result             MsgType = "RESULT"
	AbortJob           MsgType = "ABORT_JOB"
	DeleteJob          MsgType = "DELETE_JOB"
	OriginGraph        MsgType = "ORIGIN_GRAPH"
	NewJobResponseType MsgType = "NEW_JOB_RESPONSE"
	ErrorType          MsgType = "ERROR"
	NewJob             MsgType = "NEW_JOB"
)

// ParseMsgType maps a wire string to a MsgType, falling back to NewJob for
// anything unrecognized.
func ParseMsgType(s string) MsgType {
	switch MsgType(s) {
	case Auth, CreateUser, AvailableHandlers, Status, Result, AbortJob, DeleteJob, OriginGraph, NewJobResponseType, ErrorType:
		return MsgType(s)
	default:
		return NewJob
	}
}

// NeedsBody reports whether this message type carries a Container payload.
// CreateUser is bodyless too: its only input, the candidate username and
// password, already travels in MetaData.User, and it is handled during
// authentication itself, before the dispatch table is consulted.
func (t MsgType) NeedsBody() bool {
	switch t {
	case Auth, AvailableHandlers, Status, CreateUser:
		return false
	default:
		return true
	}
}

// User carries the credentials presented with every frame.
type User struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// MetaData is the uncompressed header of every frame in both directions.
type MetaData struct {
	Type          MsgType `json:"type"`
	ContainerSize uint64  `json:"containersize"`
	HandlerType   string  `json:"handlertype,omitempty"`
	JobName       string  `json:"jobname,omitempty"`
	User          User    `json:"user"`
}

func (m MetaData) String() string {
	return fmt.Sprintf("MetaData{type=%s containersize=%d handlertype=%q jobname=%q user=%q}",
		m.Type, m.ContainerSize, m.HandlerType, m.JobName, m.User.Name)
}
