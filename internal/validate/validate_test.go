package validate

import "testing"

// TestUsername accepts conservative names and rejects the rest.
func TestUsername(t *testing.T) {
	for _, ok := range []string{"alice", "a", "user.name-1_x"} {
		if err := Username(ok); err != nil {
			t.Fatalf("Username(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".dot", "white space", "way" + string(make([]byte, 70))} {
		if err := Username(bad); err == nil {
			t.Fatalf("expected Username(%q) to fail", bad)
		}
	}
}

// TestOriginalName guards the metadata column against junk.
func TestOriginalName(t *testing.T) {
	if err := OriginalName("cat photo.png"); err != nil {
		t.Fatalf("OriginalName: %v", err)
	}
	for _, bad := range []string{"", "a\x00b", "line\nbreak"} {
		if err := OriginalName(bad); err == nil {
			t.Fatalf("expected OriginalName(%q) to fail", bad)
		}
	}
}
