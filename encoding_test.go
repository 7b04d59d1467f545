package id3v2

import (
	"bytes"
	"testing"
)

func TestSynchsafeRoundTrip(t *testing.T) {
	cases := []struct {
		v     uint64
		width int
	}{
		{0, 4}, {127, 4}, {128, 4}, {268435455, 4}, {0, 5}, {1 << 34, 5},
	}
	for _, c := range cases {
		b, err := encodeSynchsafe(c.v, c.width)
		if err != nil {
			t.Fatalf("encodeSynchsafe(%d, %d): %v", c.v, c.width, err)
		}
		if len(b) != c.width {
			t.Fatalf("encodeSynchsafe(%d, %d): got %d bytes, want %d", c.v, c.width, len(b), c.width)
		}
		for _, by := range b {
			if by&0x80 != 0 {
				t.Fatalf("encodeSynchsafe(%d, %d): byte 0x%02x has high bit set", c.v, c.width, by)
			}
		}
		got, err := decodeSynchsafe(b)
		if err != nil {
			t.Fatalf("decodeSynchsafe: %v", err)
		}
		if got != c.v {
			t.Fatalf("round trip: got %d, want %d", got, c.v)
		}
	}
}

func TestSynchsafeOverflow(t *testing.T) {
	if _, err := encodeSynchsafe(1<<28, 4); err == nil {
		t.Fatal("expected overflow error for value exceeding 4x7 bits")
	}
}

func TestDecodeSynchsafeRejectsHighBit(t *testing.T) {
	if _, err := decodeSynchsafe([]byte{0x00, 0x00, 0x80, 0x00}); err == nil {
		t.Fatal("expected error for synchsafe byte with high bit set")
	}
}

func TestUnsyncRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x00},
		{0xFF, 0x00},
		{0xFF, 0xE0},
		{0xFF},
		{0x01, 0xFF, 0x00, 0x02, 0xFF, 0xFF, 0x03},
		{0xFF, 0xFF, 0xFF},
	}
	for _, in := range cases {
		enc := unsyncEncode(in)
		for i := 0; i+1 < len(enc); i++ {
			if enc[i] == 0xFF {
				next := enc[i+1]
				if next == 0x00 {
					continue
				}
				if next >= 0xE0 {
					t.Fatalf("unsyncEncode(%v) left 0xFF followed by 0x%02x unescaped", in, next)
				}
			}
		}
		dec := unsyncDecode(enc)
		if !bytes.Equal(dec, in) {
			t.Fatalf("unsync round trip: got %v, want %v (encoded: %v)", dec, in, enc)
		}
	}
}

func TestEncodeFlagByte(t *testing.T) {
	b := encodeFlagByte(true, false, true)
	if b != 0xA0 {
		t.Fatalf("encodeFlagByte(true,false,true) = 0x%02x, want 0xA0", b)
	}
	if !flagBit(b, 0) || flagBit(b, 1) || !flagBit(b, 2) {
		t.Fatalf("flagBit readback mismatch for 0x%02x", b)
	}
}

func TestTextRoundTrip(t *testing.T) {
	cases := []struct {
		enc Encoding
		s   string
	}{
		{ISO88591, "hello"},
		{UTF8, "héllo wörld"},
		{UTF16BE, "héllo"},
		{UTF16BOM, "héllo"},
	}
	for _, c := range cases {
		b, err := encodeText(c.s, c.enc)
		if err != nil {
			t.Fatalf("encodeText(%q, %v): %v", c.s, c.enc, err)
		}
		got, err := decodeText(b, c.enc)
		if err != nil {
			t.Fatalf("decodeText: %v", err)
		}
		if got != c.s {
			t.Fatalf("text round trip: got %q, want %q", got, c.s)
		}
	}
}

func TestSplitTerminatedUTF16Alignment(t *testing.T) {
	// "A" in UTF-16BE is 0x0041; a naive byte-wise zero-scan would
	// wrongly treat the 0x00 half of that code unit as a terminator.
	data := []byte{0x00, 'A', 0x00, 0x00, 0x00, 'B'}
	before, after, ok := splitTerminated(data, UTF16BE)
	if !ok {
		t.Fatal("expected a terminator to be found")
	}
	if !bytes.Equal(before, []byte{0x00, 'A'}) {
		t.Fatalf("before = %v, want %v", before, []byte{0x00, 'A'})
	}
	if !bytes.Equal(after, []byte{0x00, 'B'}) {
		t.Fatalf("after = %v, want %v", after, []byte{0x00, 'B'})
	}
}

func TestRemapRoundTrip(t *testing.T) {
	for v22, canonical := range v22ToCanonical {
		got, err := remapToCanonical(v22)
		if err != nil {
			t.Fatalf("remapToCanonical(%q): %v", v22, err)
		}
		if got != canonical {
			t.Fatalf("remapToCanonical(%q) = %q, want %q", v22, got, canonical)
		}
		back, err := remapToV22(canonical)
		if err != nil {
			t.Fatalf("remapToV22(%q): %v", canonical, err)
		}
		if back != v22 {
			t.Fatalf("remapToV22(%q) = %q, want %q", canonical, back, v22)
		}
	}
}

func TestRemapForVersionDropsV4Removed(t *testing.T) {
	if _, err := remapForVersion("TYER", Version4); err == nil {
		t.Fatal("expected TYER to be rejected at ID3v2.4")
	}
	got, err := remapForVersion("TYER", Version3)
	if err != nil {
		t.Fatalf("remapForVersion(TYER, v2.3): %v", err)
	}
	if got != "TYER" {
		t.Fatalf("remapForVersion(TYER, v2.3) = %q, want TYER", got)
	}
}

func TestEncodingSupportedAt(t *testing.T) {
	if !UTF8.supportedAt(Version4) {
		t.Fatal("UTF-8 should be supported at v2.4")
	}
	if UTF8.supportedAt(Version3) {
		t.Fatal("UTF-8 should not be supported at v2.3")
	}
	if !ISO88591.supportedAt(Version2) {
		t.Fatal("ISO-8859-1 should be supported at v2.2")
	}
}
