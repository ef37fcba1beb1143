package sysnum

import "testing"

func TestNameToIDRoundTrip(t *testing.T) {
	id, ok := NameToID("read")
	if !ok {
		t.Fatalf("expected to find syscall %q", "read")
	}
	if got := IDToName(id); got != "read" {
		t.Fatalf("IDToName(%d) = %q, want %q", id, got, "read")
	}
}

func TestUnknownIDGetsPlaceholderName(t *testing.T) {
	const bogus = 1 << 20
	got := IDToName(bogus)
	want := "syscall_1048576"
	if got != want {
		t.Fatalf("IDToName(%d) = %q, want %q", bogus, got, want)
	}
}

func TestUnknownNameNotFound(t *testing.T) {
	if _, ok := NameToID("not_a_real_syscall"); ok {
		t.Fatalf("expected lookup of an unknown syscall name to fail")
	}
}
