package auxv

import "testing"

func TestReadInit(t *testing.T) {
	entries, err := Read(1)
	if err != nil {
		t.Fatalf("Read(1): %v", err)
	}
	if _, ok := entries[ATEntry]; !ok {
		t.Fatalf("expected AT_ENTRY to be present in init's auxv")
	}
}

func TestReadMissingProcess(t *testing.T) {
	// pid 0 never has a /proc/0/auxv.
	if _, err := Read(0); err == nil {
		t.Fatalf("expected an error reading auxv for a nonexistent pid")
	}
}
