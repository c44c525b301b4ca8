package management

import (
	"fmt"
	"time"
)

func (s *Server) handleScheduler(req Request) Response {
	switch req.Cmd {
	case "time-limit":
		return s.schedulerIntSetting(req, "time-limit",
			func(v int64) { s.sch.SetTimeLimit(v) },
			func() int64 { return s.sch.TimeLimit() })
	case "resource-limit":
		return s.schedulerIntSetting(req, "resource-limit",
			func(v int64) { s.sch.SetResourceLimit(v) },
			func() int64 { return s.sch.ResourceLimit() })
	case "process-limit":
		return s.schedulerIntSetting(req, "process-limit",
			func(v int64) { s.sch.SetProcessLimit(int(v)) },
			func() int64 { return int64(s.sch.ProcessLimit()) })
	case "sleep":
		return s.schedulerIntSetting(req, "sleep",
			func(v int64) { s.sch.SetSleep(time.Duration(v) * time.Millisecond) },
			func() int64 { return s.sch.Sleep().Milliseconds() })
	default:
		return malformed(fmt.Errorf("unknown scheduler cmd %q", req.Cmd))
	}
}

// schedulerIntSetting implements the shared "set if arg provided, always
// return current value" shape every scheduler command follows.
func (s *Server) schedulerIntSetting(req Request, key string, set func(int64), get func() int64) Response {
	value, present, err := req.argInt()
	if err != nil {
		return invalidArgument(err)
	}
	if present {
		set(value)
	}
	return ok(map[string]int64{key: get()})
}
