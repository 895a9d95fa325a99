package encoding

import "testing"

func TestEUCKRRoundTrip(t *testing.T) {
	names := []string{"grass01.bmp", "유저인터페이스/바닥.bmp", "water\\blue.bmp"}
	for _, name := range names {
		field := UTF8ToFixedString(name, 80)
		if len(field) != 80 {
			t.Fatalf("expected 80-byte field, got %d", len(field))
		}
		if got := FixedStringToUTF8(field); got != name {
			t.Errorf("expected %q, got %q", name, got)
		}
	}
}

func TestEUCKREncodesHangul(t *testing.T) {
	// "바닥" is two 2-byte EUC-KR characters.
	if got := len(UTF8ToEUCKR("바닥")); got != 4 {
		t.Errorf("expected 4 EUC-KR bytes, got %d", got)
	}
}

func TestFixedStringToUTF8_NoTerminator(t *testing.T) {
	if got := FixedStringToUTF8([]byte("abc")); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Data\\Texture\\GRASS.BMP", "data/texture/grass.bmp"},
		{"already/normal.bmp", "already/normal.bmp"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
