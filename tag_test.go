package id3v2

import (
	"bytes"
	"strings"
	"testing"
)

func v(n int) *Version {
	x := Version(n)
	return &x
}

func enc(e Encoding) *Encoding {
	return &e
}

// A minimal two-frame v2.3 tag round-trips byte for byte.
func TestMinimalV23RoundTrip(t *testing.T) {
	frames := []Frame{
		&TextFrame{FrameHeader: FrameHeader{ID: "TIT2"}, Encoding: ISO88591, Text: "Hello"},
		&TextFrame{FrameHeader: FrameHeader{ID: "TPE1"}, Encoding: ISO88591, Text: "World"},
	}
	out, err := Encode(frames, EncodeOptions{ID3Version: v(3), TextEncoding: enc(ISO88591)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Tag size: two frames of 10-byte header + 6-byte body = 32 = 0x20.
	wantHeader := []byte{0x49, 0x44, 0x33, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x20}
	if !bytes.Equal(out[:10], wantHeader) {
		t.Fatalf("header = % X, want % X", out[:10], wantHeader)
	}

	frame1 := out[10:20]
	if string(frame1[0:4]) != "TIT2" {
		t.Fatalf("first frame id = %q, want TIT2", frame1[0:4])
	}
	if !bytes.Equal(frame1[4:8], []byte{0, 0, 0, 6}) {
		t.Fatalf("first frame size = % X, want 00 00 00 06", frame1[4:8])
	}
	if !bytes.Equal(frame1[8:10], []byte{0, 0}) {
		t.Fatalf("first frame flags = % X, want 00 00", frame1[8:10])
	}

	tag, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(tag.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(tag.Frames))
	}
	got1, ok := tag.Frames[0].(*TextFrame)
	if !ok || got1.ID != "TIT2" || got1.Text != "Hello" {
		t.Fatalf("frame 0 = %+v, want TIT2=Hello", tag.Frames[0])
	}
	got2, ok := tag.Frames[1].(*TextFrame)
	if !ok || got2.ID != "TPE1" || got2.Text != "World" {
		t.Fatalf("frame 1 = %+v, want TPE1=World", tag.Frames[1])
	}
}

// v2.4 tag sizes stay synchsafe even when a frame body is large.
func TestV24SynchsafeSize(t *testing.T) {
	payload := strings.Repeat("x", 200)
	frames := []Frame{
		&TextFrame{FrameHeader: FrameHeader{ID: "TIT2"}, Encoding: UTF8, Text: payload},
	}
	out, err := Encode(frames, EncodeOptions{ID3Version: v(4)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sizeBytes := out[6:10]
	for _, b := range sizeBytes {
		if b&0x80 != 0 {
			t.Fatalf("tag size byte 0x%02x has MSB set", b)
		}
	}
	n, err := decodeSynchsafe(sizeBytes)
	if err != nil {
		t.Fatalf("decodeSynchsafe: %v", err)
	}
	if int(n) != len(out)-10 {
		t.Fatalf("declared size %d, actual frame stream %d", n, len(out)-10)
	}
}

// Unsynchronisation escapes false sync signals and decodes back to the
// exact original body.
func TestUnsynchronisationTransparency(t *testing.T) {
	body := []byte{0xFF, 0xE0, 0xFF, 0x00, 0xFF}
	frames := []Frame{
		&RawFrame{FrameHeader: FrameHeader{ID: "PRIV"}, Body: body},
	}
	registerFrameFactory([]FrameType{"PRIV"}, func(h FrameHeader, b []byte, _ Version) (Frame, error) {
		raw := make([]byte, len(b))
		copy(raw, b)
		return &RawFrame{FrameHeader: h, Body: raw}, nil
	})

	out, err := Encode(frames, EncodeOptions{ID3Version: v(3), Unsynchronisation: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// The frame stream (everything after the 10-byte header) must contain
	// the escaped form of body somewhere.
	want := []byte{0xFF, 0x00, 0xE0, 0xFF, 0x00, 0x00, 0xFF, 0x00}
	if !bytes.Contains(out[10:], want) {
		t.Fatalf("frame stream % X does not contain escaped form % X", out[10:], want)
	}

	tag, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	raw, ok := tag.Frames[0].(*RawFrame)
	if !ok {
		t.Fatalf("frame 0 = %T, want *RawFrame", tag.Frames[0])
	}
	if !bytes.Equal(raw.Body, body) {
		t.Fatalf("recovered body = % X, want % X", raw.Body, body)
	}
}

// Encoding a v2.4-only frame at a pinned v2.3 fails with an explanatory
// error.
func TestVersionDowngradeRejection(t *testing.T) {
	frames := []Frame{
		&EQU2Frame{FrameHeader: FrameHeader{ID: "EQU2"}, Identification: "preset"},
	}
	_, err := Encode(frames, EncodeOptions{ID3Version: v(3)})
	if err == nil {
		t.Fatal("expected an error encoding EQU2 at ID3v2.3")
	}
	if !strings.Contains(err.Error(), "only supported in ID3v2.4") &&
		!strings.Contains(err.Error(), "only defined in ID3v2.4") {
		t.Fatalf("error %q does not explain the v2.4-only restriction", err.Error())
	}
}

// A v2.2 COM frame remaps to canonical COMM on decode and back to COM if
// re-encoded at v2.2; here it round-trips through v2.4.
func TestIdentifierRemapV22ToV24(t *testing.T) {
	// Hand-build a minimal v2.2 tag containing a single COM frame.
	body := []byte{0x00, 'e', 'n', 'g', 'h', 'i', 0x00, 't', 'h', 'e', 'r', 'e'}
	var buf bytes.Buffer
	buf.WriteString("COM")
	sz, _ := beBytes(uint64(len(body)), 3)
	buf.Write(sz)
	buf.Write(body)

	frameStream := buf.Bytes()
	header, err := encodeTagHeader(len(frameStream), EncodeOptions{}, Version2)
	if err != nil {
		t.Fatalf("encodeTagHeader: %v", err)
	}
	tagBytes := append(header, frameStream...)

	tag, err := Decode(tagBytes)
	if err != nil {
		t.Fatalf("Decode v2.2 tag: %v", err)
	}
	if len(tag.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(tag.Frames))
	}
	comment, ok := tag.Frames[0].(*CommentFrame)
	if !ok || comment.ID != "COMM" {
		t.Fatalf("frame 0 = %+v, want canonical COMM", tag.Frames[0])
	}

	out, err := Encode(tag.Frames, EncodeOptions{ID3Version: v(4)})
	if err != nil {
		t.Fatalf("re-encode at v2.4: %v", err)
	}
	if string(out[10:14]) != "COMM" {
		t.Fatalf("re-emitted identifier = %q, want COMM", out[10:14])
	}
	// v2.2 frame header is 6 bytes; v2.3+ is 10.
	reDecoded, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode re-encoded tag: %v", err)
	}
	got := reDecoded.Frames[0].(*CommentFrame)
	if got.Description != "hi" || got.Text != "there" {
		t.Fatalf("round-tripped comment = %+v, want description=hi text=there", got)
	}
}

// APIC's MIME type canonicalises to a 3-char image format at v2.2 and
// back to a full MIME string at v2.4.
func TestAPICMimeAcrossVersions(t *testing.T) {
	pic := &APICFrame{
		FrameHeader: FrameHeader{ID: "APIC"},
		Encoding:    ISO88591,
		MIMEType:    "image/png",
		PictureType: 3,
		Description: "cover",
		Data:        []byte{1, 2, 3, 4},
	}

	outV2, err := Encode([]Frame{pic}, EncodeOptions{ID3Version: v(2)})
	if err != nil {
		t.Fatalf("encode at v2.2: %v", err)
	}
	// PIC body: encoding(1) + "PNG"(3) + pictype(1) + desc+term(6) + data(4)
	body := outV2[10+6:] // skip the tag header and the frame header (v2.2 has no flags, 3-byte id, 3-byte size)
	if !bytes.Contains(body, []byte("PNG")) {
		t.Fatalf("v2.2 body does not contain 3-char image format PNG: % X", body)
	}

	decodedV2, err := Decode(outV2)
	if err != nil {
		t.Fatalf("decode v2.2: %v", err)
	}
	gotV2 := decodedV2.Frames[0].(*APICFrame)
	if gotV2.MIMEType != "image/png" {
		t.Fatalf("v2.2 decoded mime = %q, want image/png", gotV2.MIMEType)
	}

	outV4, err := Encode([]Frame{pic}, EncodeOptions{ID3Version: v(4)})
	if err != nil {
		t.Fatalf("encode at v2.4: %v", err)
	}
	if !bytes.Contains(outV4, []byte("image/png\x00")) {
		t.Fatalf("v2.4 body does not contain terminated full mime string")
	}
	decodedV4, err := Decode(outV4)
	if err != nil {
		t.Fatalf("decode v2.4: %v", err)
	}
	gotV4 := decodedV4.Frames[0].(*APICFrame)
	if gotV4.MIMEType != "image/png" {
		t.Fatalf("v2.4 decoded mime = %q, want image/png", gotV4.MIMEType)
	}
}

// Frame order survives an encode/decode round trip unchanged.
func TestOrderingPreserved(t *testing.T) {
	frames := []Frame{
		&TextFrame{FrameHeader: FrameHeader{ID: "TIT2"}, Encoding: ISO88591, Text: "a"},
		&TextFrame{FrameHeader: FrameHeader{ID: "TPE1"}, Encoding: ISO88591, Text: "b"},
		&TextFrame{FrameHeader: FrameHeader{ID: "TALB"}, Encoding: ISO88591, Text: "c"},
	}
	out, err := Encode(frames, EncodeOptions{ID3Version: v(3)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tag, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(tag.Frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(tag.Frames))
	}
	for i, id := range []FrameType{"TIT2", "TPE1", "TALB"} {
		if tag.Frames[i].Header().ID != id {
			t.Fatalf("frame %d id = %s, want %s", i, tag.Frames[i].Header().ID, id)
		}
	}
}

// Trailing zero padding after the frame stream does not confuse decode.
func TestPaddingSafeDecode(t *testing.T) {
	frames := []Frame{
		&TextFrame{FrameHeader: FrameHeader{ID: "TIT2"}, Encoding: ISO88591, Text: "Hello"},
	}
	out, err := Encode(frames, EncodeOptions{ID3Version: v(3)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Rebuild a tag header claiming extra padding beyond the frame stream.
	padding := make([]byte, 20)
	frameStream := out[10:]
	withPadding := append(append([]byte{}, frameStream...), padding...)
	header, err := encodeTagHeader(len(withPadding), EncodeOptions{}, Version3)
	if err != nil {
		t.Fatalf("encodeTagHeader: %v", err)
	}
	padded := append(header, withPadding...)

	tag, err := Decode(padded)
	if err != nil {
		t.Fatalf("Decode padded tag: %v", err)
	}
	if len(tag.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(tag.Frames))
	}
	got := tag.Frames[0].(*TextFrame)
	if got.Text != "Hello" {
		t.Fatalf("got text %q, want Hello", got.Text)
	}
}

// Version-selection picks the highest version every frame supports when no
// version is pinned.
func TestAutomaticVersionSelectionPrefersHighest(t *testing.T) {
	frames := []Frame{
		&TextFrame{FrameHeader: FrameHeader{ID: "TIT2"}, Encoding: ISO88591, Text: "Hello"},
	}
	out, err := Encode(frames, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tag, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tag.Header.Version != Version4 {
		t.Fatalf("version = %s, want ID3v2.4", tag.Header.Version)
	}
}

// Automatic selection falls back to a lower version when a frame can't be
// represented at v2.4, e.g. a v2.2/v2.3-only RVAD frame.
func TestAutomaticVersionSelectionFallsBack(t *testing.T) {
	frames := []Frame{
		&RVADFrame{FrameHeader: FrameHeader{ID: "RVAD"}, BitsPerVolume: 16},
	}
	out, err := Encode(frames, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tag, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tag.Header.Version != Version3 {
		t.Fatalf("version = %s, want ID3v2.3 (RVAD is not valid at v2.4)", tag.Header.Version)
	}
}

// A tag header declaring a size larger than the actual input returns
// ErrMalformed instead of panicking on an out-of-range slice.
func TestTruncatedTagBodyReturnsError(t *testing.T) {
	header, err := encodeTagHeader(100, EncodeOptions{}, Version3)
	if err != nil {
		t.Fatalf("encodeTagHeader: %v", err)
	}
	truncated := append(header, make([]byte, 10)...) // claims 100 bytes, has 10
	_, err = Decode(truncated)
	if err == nil {
		t.Fatal("expected an error for a truncated tag body")
	}
	if _, ok := err.(ErrMalformed); !ok {
		t.Fatalf("got %T, want ErrMalformed", err)
	}
}

// Unsupported tag-level compression is rejected at decode.
func TestV22CompressionRejected(t *testing.T) {
	header := []byte{'I', 'D', '3', 2, 0, 0x40, 0, 0, 0, 0}
	if _, err := Decode(header); err == nil {
		t.Fatal("expected an error for ID3v2.2 tag-level compression")
	}
}

// Extended header round trip at v2.4 with CRC data and tag restrictions.
func TestV24ExtendedHeaderRoundTrip(t *testing.T) {
	crc := uint32(0x1234)
	frames := []Frame{
		&TextFrame{FrameHeader: FrameHeader{ID: "TIT2"}, Encoding: UTF8, Text: "Hello"},
	}
	out, err := Encode(frames, EncodeOptions{
		ID3Version: v(4),
		CRCData:    &crc,
		TagRestrictions: &TagRestrictions{
			TagSize: 1, TextEncoding: 0, TextFieldSize: 2, ImageEncoding: 1, ImageSize: 3,
		},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tag, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tag.Header.Extended == nil {
		t.Fatal("expected an extended header")
	}
	if !tag.Header.Extended.CRCDataPresent || tag.Header.Extended.CRCData != crc {
		t.Fatalf("extended header CRC = %+v, want present with value %d", tag.Header.Extended, crc)
	}
	if tag.Header.Extended.Restrictions == nil {
		t.Fatal("expected tag restrictions to round-trip")
	}
	r := *tag.Header.Extended.Restrictions
	if r.TagSize != 1 || r.TextFieldSize != 2 || r.ImageEncoding != 1 || r.ImageSize != 3 {
		t.Fatalf("restrictions = %+v, want {1,0,2,1,3}", r)
	}
}
