package job

import "testing"

func TestStatusRoundTrip(t *testing.T) {
	cases := []Status{Unknown, Waiting, Running, Success, Failed, Aborted}
	for _, s := range cases {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", s, err)
		}
		var got Status
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if got != s {
			t.Fatalf("round trip mismatch: want %v, got %v", s, got)
		}
	}
}

func TestParseStatusUnknownString(t *testing.T) {
	if _, err := ParseStatus("NOT_A_STATUS"); err == nil {
		t.Fatal("expected error for unrecognized status string")
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		Unknown: false,
		Waiting: false,
		Running: false,
		Success: true,
		Failed:  true,
		Aborted: true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Fatalf("%v.Terminal() = %v, want %v", s, got, want)
		}
	}
}
