package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UserID       int64    `bun:"user_id,pk,autoincrement"`
	Name         string   `bun:"name,notnull,unique"`
	PasswordHash []byte   `bun:"pw_hash,notnull"`
	Salt         []byte   `bun:"salt,notnull"`
	Role         job.Role `bun:"role,notnull,default:0"`
	Blocked      bool     `bun:"blocked,notnull,default:false"`
}

func (um *userModel) toUser() *job.User {
	return &job.User{
		UserID:       um.UserID,
		Name:         um.Name,
		PasswordHash: um.PasswordHash,
		Salt:         um.Salt,
		Role:         um.Role,
		Blocked:      um.Blocked,
	}
}

type jobModel struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	JobID       int64        `bun:"job_id,pk,autoincrement"`
	UserID      int64        `bun:"user_id,notnull"`
	HandlerType string       `bun:"handler_type,notnull"`
	JobName     string       `bun:"job_name,notnull"`
	Status      job.Status   `bun:"status,notnull,default:1"`
	RequestType job.DataType `bun:"request_type,notnull,default:0"`
	RequestID   *int64       `bun:"request_id"`
	ResponseID  *int64       `bun:"response_id"`

	TimeReceived time.Time  `bun:"time_received,nullzero,notnull,default:current_timestamp"`
	StartingTime *time.Time `bun:"starting_time"`
	EndTime      *time.Time `bun:"end_time"`

	OGDFRuntimeMicros int64 `bun:"ogdf_runtime,notnull,default:0"`

	StdoutMsg string `bun:"stdout_msg,notnull,default:''"`
	ErrorMsg  string `bun:"error_msg,notnull,default:''"`
}

func (jm *jobModel) toJob() *job.Job {
	return &job.Job{
		JobID:             jm.JobID,
		UserID:            jm.UserID,
		HandlerType:       jm.HandlerType,
		JobName:           jm.JobName,
		Status:            jm.Status,
		RequestType:       jm.RequestType,
		RequestID:         jm.RequestID,
		ResponseID:        jm.ResponseID,
		TimeReceived:      jm.TimeReceived,
		StartingTime:      jm.StartingTime,
		EndTime:           jm.EndTime,
		OGDFRuntimeMicros: jm.OGDFRuntimeMicros,
		StdoutMsg:         jm.StdoutMsg,
		ErrorMsg:          jm.ErrorMsg,
	}
}

// dataModel backs the append-only data table: exactly one request row per
// job, created in the same transaction as the job itself, and at most one
// response row, created by the worker process on completion.
type dataModel struct {
	bun.BaseModel `bun:"table:data,alias:d"`

	DataID     int64        `bun:"data_id,pk,autoincrement"`
	JobID      int64        `bun:"job_id,notnull"`
	Type       job.DataType `bun:"type,notnull"`
	BinaryData []byte       `bun:"binary_data"`
}
