package message

import (
	"testing"

	"github.com/ashgrove-labs/dnscamo/internal/bitio"
)

func TestName_EncodeParseRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
	}{
		{"three labels", []string{"abc", "xyz", "com"}},
		{"single label", []string{"reply"}},
		{"no labels (root)", nil},
		{"base32-shaped label", []string{"mfrggzdfmztwq2lk", "baidu", "com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := bitio.NewWriter()
			n := Name{Labels: tt.labels}
			if err := EncodeName(w, n); err != nil {
				t.Fatalf("EncodeName() error = %v", err)
			}

			r := bitio.NewReader(w.Bytes())
			got, err := ParseName(r)
			if err != nil {
				t.Fatalf("ParseName() error = %v", err)
			}
			if !got.Equal(n) {
				t.Errorf("ParseName() = %+v, want %+v", got, n)
			}
			if r.Remaining() != 0 {
				t.Errorf("Remaining() = %d, want 0", r.Remaining())
			}
		})
	}
}

func TestName_OpaqueOctetsNoCaseNormalisation(t *testing.T) {
	w := bitio.NewWriter()
	n := NewName("MiXeDCaSe")
	if err := EncodeName(w, n); err != nil {
		t.Fatalf("EncodeName() error = %v", err)
	}

	r := bitio.NewReader(w.Bytes())
	got, err := ParseName(r)
	if err != nil {
		t.Fatalf("ParseName() error = %v", err)
	}
	if got.Labels[0] != "MiXeDCaSe" {
		t.Errorf("Labels[0] = %q, want %q (no case normalisation)", got.Labels[0], "MiXeDCaSe")
	}
}

func TestName_PointerEncode(t *testing.T) {
	offset := uint16(12)
	n := Name{Pointer: &offset}

	w := bitio.NewWriter()
	if err := EncodeName(w, n); err != nil {
		t.Fatalf("EncodeName() error = %v", err)
	}

	b := w.Bytes()
	if len(b) != 2 {
		t.Fatalf("len(encoded pointer) = %d, want 2", len(b))
	}
	if b[0]&0xC0 != 0xC0 {
		t.Errorf("top two bits = %02x, want 0xC0 set", b[0])
	}
}
