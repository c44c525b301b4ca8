package management

import (
	"context"
	"fmt"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// UserView is the JSON shape of a user returned over the management plane;
// it never carries the password hash or salt.
type UserView struct {
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Blocked bool   `json:"blocked"`
}

func toUserView(u *job.User) UserView {
	return UserView{UserID: u.UserID, Name: u.Name, Role: u.Role.String(), Blocked: u.Blocked}
}

// UserInfo is the "user info" reply: a user plus their jobs.
type UserInfo struct {
	User UserView     `json:"user"`
	Jobs []JobSummary `json:"jobs"`
}

func (s *Server) handleUser(ctx context.Context, req Request) Response {
	switch req.Cmd {
	case "list":
		return s.userList(ctx)
	case "info":
		return s.userInfo(ctx, req)
	case "delete":
		return s.userDelete(ctx, req)
	case "block":
		return s.userSetBlocked(ctx, req, true)
	case "unblock":
		return s.userSetBlocked(ctx, req, false)
	default:
		return malformed(fmt.Errorf("unknown user cmd %q", req.Cmd))
	}
}

func (s *Server) userList(ctx context.Context) Response {
	users, err := s.gw.ListUsers(ctx)
	if err != nil {
		return internal(err)
	}
	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = toUserView(u)
	}
	return ok(views)
}

func (s *Server) resolveUserArg(ctx context.Context, req Request) (*job.User, Response, bool) {
	name, err := req.argString()
	if err != nil {
		return nil, invalidArgument(err), false
	}
	u, err := s.gw.ResolveUserByNameOrID(ctx, name)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound || apperr.KindOf(err) == apperr.Auth {
			return nil, invalidArgument(err), false
		}
		return nil, internal(err), false
	}
	return u, Response{}, true
}

func (s *Server) userInfo(ctx context.Context, req Request) Response {
	u, resp, okResolved := s.resolveUserArg(ctx, req)
	if !okResolved {
		return resp
	}
	jobs, err := s.gw.GetJobEntries(ctx, u.UserID)
	if err != nil {
		return internal(err)
	}
	summaries := make([]JobSummary, len(jobs))
	for i, j := range jobs {
		summaries[i] = toJobSummary(j, -1, -1)
	}
	return ok(UserInfo{User: toUserView(u), Jobs: summaries})
}

func (s *Server) userDelete(ctx context.Context, req Request) Response {
	u, resp, okResolved := s.resolveUserArg(ctx, req)
	if !okResolved {
		return resp
	}
	if _, err := s.gw.AbortWaitingForUser(ctx, u.UserID); err != nil {
		return internal(err)
	}
	s.sch.CancelUserJobs(u.UserID)
	if err := s.gw.DeleteUser(ctx, u.UserID); err != nil {
		return internal(err)
	}
	return ok(fmt.Sprintf("user %d deleted", u.UserID))
}

func (s *Server) userSetBlocked(ctx context.Context, req Request, blocked bool) Response {
	u, resp, okResolved := s.resolveUserArg(ctx, req)
	if !okResolved {
		return resp
	}
	if err := s.gw.SetUserBlocked(ctx, u.UserID, blocked); err != nil {
		return internal(err)
	}
	return ok(map[string]bool{"blocked": blocked})
}
