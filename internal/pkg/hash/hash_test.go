package hash

import (
	"strings"
	"testing"
)

func TestSHA256String(t *testing.T) {
	hash1 := SHA256String("hello world")
	hash2 := SHA256String("hello world")
	hash3 := SHA256String("hello world!")

	if hash1 != hash2 {
		t.Error("same content should produce same hash")
	}
	if hash1 == hash3 {
		t.Error("different content should produce different hash")
	}
	if len(hash1) != 64 {
		t.Errorf("expected 64 character hash, got %d", len(hash1))
	}
}

func TestSHA256Short(t *testing.T) {
	short := SHA256Short([]byte("abc"), 16)
	if len(short) != 16 {
		t.Errorf("expected 16 characters, got %d", len(short))
	}

	full := SHA256Short([]byte("abc"), 1000)
	if len(full) != 64 {
		t.Errorf("n beyond hash length should return full hash, got %d chars", len(full))
	}
}

func TestAugmentedID(t *testing.T) {
	id1 := AugmentedID("exp-001", 0)
	id2 := AugmentedID("exp-001", 0)
	id3 := AugmentedID("exp-001", 1)
	id4 := AugmentedID("exp-002", 0)

	if id1 != id2 {
		t.Error("same input should produce same ID")
	}
	if id1 == id3 {
		t.Error("different index should produce different ID")
	}
	if id1 == id4 {
		t.Error("different base should produce different ID")
	}
	if !strings.HasPrefix(id1, "aug-exp-001-") {
		t.Errorf("ID should carry the base for auditability, got %s", id1)
	}
}
