package wire_test

import (
	"bytes"
	"testing"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/wire"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	meta := wire.MetaData{
		Type:        wire.NewJob,
		HandlerType: "dijkstra",
		JobName:     "trip-planner",
		User:        wire.User{Name: "alice", Password: "hunter2"},
	}
	body := []byte("a request payload that should round trip byte for byte")

	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, meta, body); err != nil {
		t.Fatal(err)
	}

	gotMeta, gotBody, err := wire.ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if gotMeta.Type != meta.Type || gotMeta.HandlerType != meta.HandlerType || gotMeta.User.Name != meta.User.Name {
		t.Fatalf("meta mismatch: got %+v, want %+v", gotMeta, meta)
	}
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body mismatch: got %q, want %q", gotBody, body)
	}
}

func TestWriteReadFrameBodyless(t *testing.T) {
	meta := wire.MetaData{Type: wire.Auth, User: wire.User{Name: "alice", Password: "hunter2"}}

	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, meta, nil); err != nil {
		t.Fatal(err)
	}

	gotMeta, gotBody, err := wire.ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if gotMeta.ContainerSize != 0 || gotBody != nil {
		t.Fatalf("expected no container, got size=%d body=%v", gotMeta.ContainerSize, gotBody)
	}
}

func TestParseMsgTypeFallsBackToNewJob(t *testing.T) {
	if got := wire.ParseMsgType("SOMETHING_UNRECOGNIZED"); got != wire.NewJob {
		t.Fatalf("expected unrecognized type to fall back to NewJob, got %v", got)
	}
}

func TestMsgTypeNeedsBody(t *testing.T) {
	bodyless := []wire.MsgType{wire.Auth, wire.AvailableHandlers, wire.Status}
	for _, mt := range bodyless {
		if mt.NeedsBody() {
			t.Fatalf("expected %v to be bodyless", mt)
		}
	}
	bearing := []wire.MsgType{wire.Result, wire.AbortJob, wire.DeleteJob, wire.OriginGraph, wire.NewJob}
	for _, mt := range bearing {
		if !mt.NeedsBody() {
			t.Fatalf("expected %v to carry a body", mt)
		}
	}
}

func TestEncodeDecodeContainerRoundTrip(t *testing.T) {
	want := wire.ResultRequest{JobID: 42}
	data, err := wire.EncodeContainer(want)
	if err != nil {
		t.Fatal(err)
	}
	var got wire.ResultRequest
	if err := wire.DecodeContainer(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
