package probe

import (
	"context"
	"reflect"
	"testing"
)

type stubChecker struct {
	name string
	up   bool
}

func (s *stubChecker) Check(ctx context.Context, host string) Result {
	return Result{Name: s.name, Success: s.up, Message: s.name}
}

func TestSuite_RunsAllProbes(t *testing.T) {
	s := NewSuite(
		&stubChecker{name: "ping", up: false},
		&stubChecker{name: "tcp", up: true},
		&stubChecker{name: "service", up: false},
	)
	v := s.Run(context.Background(), "10.0.0.5")

	// A failing probe must not short-circuit the others.
	if v.Ping.Name != "ping" || v.SSH.Name != "tcp" || v.Service.Name != "service" {
		t.Fatalf("all three probes should have run: %+v", v)
	}
	if v.Ping.Success || !v.SSH.Success || v.Service.Success {
		t.Fatalf("verdicts scrambled: %+v", v)
	}
}

func TestVerdict_Issues(t *testing.T) {
	cases := []struct {
		ping, ssh, service bool
		want               []string
	}{
		{true, true, true, nil},
		{false, true, true, []string{"Ping Unreachable"}},
		{true, false, true, []string{"SSH Port 22 Closed"}},
		{true, true, false, []string{"Service API Unreachable"}},
		{false, false, false, []string{"Ping Unreachable", "SSH Port 22 Closed", "Service API Unreachable"}},
	}
	for _, c := range cases {
		v := Verdict{
			Ping:    Result{Success: c.ping},
			SSH:     Result{Success: c.ssh},
			Service: Result{Success: c.service},
		}
		if got := v.Issues(); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("issues(%v,%v,%v)=%v want %v", c.ping, c.ssh, c.service, got, c.want)
		}
	}
}
