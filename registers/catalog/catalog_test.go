package catalog

import "testing"

func TestByNameMatchesByID(t *testing.T) {
	info, ok := ByName("rax")
	if !ok {
		t.Fatalf("expected to find register %q", "rax")
	}
	if info.ID != RAX {
		t.Fatalf("ByName(%q).ID = %v, want RAX", "rax", info.ID)
	}

	byID, ok := ByID(RAX)
	if !ok || byID.Name != "rax" {
		t.Fatalf("ByID(RAX) = %+v, ok=%v", byID, ok)
	}
}

func TestSubRegistersShareOffsetWithOwner(t *testing.T) {
	rax, ok := ByID(RAX)
	if !ok {
		t.Fatalf("missing RAX")
	}
	eax, ok := ByID(EAX)
	if !ok {
		t.Fatalf("missing EAX")
	}
	if eax.Offset != rax.Offset {
		t.Fatalf("eax offset %d should equal rax offset %d", eax.Offset, rax.Offset)
	}

	al, ok := ByID(AL)
	if !ok || al.Offset != rax.Offset {
		t.Fatalf("al should alias rax's low byte at offset %d, got %d", rax.Offset, al.Offset)
	}

	ah, ok := ByID(AH)
	if !ok || ah.Offset != rax.Offset+1 {
		t.Fatalf("ah should alias rax's second byte at offset %d, got %d", rax.Offset+1, ah.Offset)
	}
}

func TestDebugRegisterOffsetsAreContiguous(t *testing.T) {
	for i := 0; i < 8; i++ {
		want := DebugRegisterOffset(i)
		info, ok := ByID(DR0 + ID(i))
		if !ok {
			t.Fatalf("missing debug register dr%d", i)
		}
		if info.Offset != want {
			t.Fatalf("dr%d offset = %d, want %d", i, info.Offset, want)
		}
	}
}

func TestUnknownRegisterNameNotFound(t *testing.T) {
	if _, ok := ByName("not_a_register"); ok {
		t.Fatalf("expected lookup of an unknown register name to fail")
	}
}
