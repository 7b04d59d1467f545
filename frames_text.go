package id3v2

import "fmt"

func init() {
	registerFrameFactory(textFrameIDs, decodeTextFrame)
	registerFrameFactory(urlFrameIDs, decodeURLFrame)
	registerFrameFactory([]FrameType{"TXXX"}, decodeUserTextFrame)
	registerFrameFactory([]FrameType{"WXXX"}, decodeUserURLFrame)
}

// textFrameIDs lists every canonical "T***" text information identifier
// this codec knows by name, excluding TXXX (its own frame type below) and
// TIPL/TMCL (registered by frames_strings.go's init as PersonListFrame,
// not a plain text string). Any other "T***" identifier not covered here
// still decodes as a generic TextFrame via decodeFrameBody's fallback.
var textFrameIDs = func() []FrameType {
	var ids []FrameType
	for id := range FrameNames {
		if len(id) == 4 && id[0] == 'T' && id != "TXXX" && id != "TIPL" && id != "TMCL" {
			ids = append(ids, id)
		}
	}
	return ids
}()

// urlFrameIDs lists every canonical "W***" URL link identifier this codec
// knows by name, WXXX excluded. Any other "W***" identifier not covered
// here still decodes as a generic URLFrame via decodeFrameBody's fallback.
var urlFrameIDs = []FrameType{
	"WCOM", "WCOP", "WOAF", "WOAR", "WOAS", "WORS", "WPAY", "WPUB",
}

// TextFrame is a text information frame: an encoding byte
// followed by one encoded, terminator-free string (the only in-band
// terminator rule exception — the "termination is optional on
// decode for the last string in the body" applies throughout, but text
// information frames have exactly one string and no terminator at all is
// the normal wire form).
type TextFrame struct {
	FrameHeader
	Encoding Encoding
	Text     string
}

func (f *TextFrame) Header() FrameHeader { return f.FrameHeader }

func (f *TextFrame) supportsContentVersion(v Version) error {
	if f.ID == "TDRC" || f.ID == "TDOR" || f.ID == "TDEN" || f.ID == "TDRL" || f.ID == "TDTG" {
		if v != Version4 {
			return fmt.Errorf("%s is only defined in ID3v2.4", f.ID)
		}
	}
	if removedInV4[f.ID] && v == Version4 {
		return fmt.Errorf("%s was removed in ID3v2.4", f.ID)
	}
	return nil
}

func (f *TextFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	text, err := encodeText(f.Text, enc)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	return append(out, text...), nil
}

func decodeTextFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: fmt.Sprintf("%s body is empty", h.ID)}
	}
	enc := Encoding(body[0])
	text, err := decodeText(body[1:], enc)
	if err != nil {
		return nil, err
	}
	return &TextFrame{FrameHeader: h, Encoding: enc, Text: text}, nil
}

// URLFrame is a URL link frame: a single ISO-8859-1 string,
// no encoding byte, no terminator.
type URLFrame struct {
	FrameHeader
	URL string
}

func (f *URLFrame) Header() FrameHeader { return f.FrameHeader }

func (f *URLFrame) supportsContentVersion(v Version) error { return nil }

func (f *URLFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	return encodeText(f.URL, ISO88591)
}

func decodeURLFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	url, err := decodeText(body, ISO88591)
	if err != nil {
		return nil, err
	}
	return &URLFrame{FrameHeader: h, URL: url}, nil
}

// UserTextFrame is TXXX: an encoding byte, a terminated description, and an
// unterminated value.
type UserTextFrame struct {
	FrameHeader
	Encoding    Encoding
	Description string
	Value       string
}

func (f *UserTextFrame) Header() FrameHeader { return f.FrameHeader }

func (f *UserTextFrame) supportsContentVersion(v Version) error { return nil }

func (f *UserTextFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	desc, err := encodeText(f.Description, enc)
	if err != nil {
		return nil, err
	}
	val, err := encodeText(f.Value, enc)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	out = append(out, desc...)
	out = append(out, enc.terminator()...)
	out = append(out, val...)
	return out, nil
}

func decodeUserTextFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "TXXX body is empty"}
	}
	enc := Encoding(body[0])
	desc, rest, ok := splitTerminated(body[1:], enc)
	if !ok {
		return nil, ErrMalformed{Reason: "TXXX description is not terminated"}
	}
	description, err := decodeText(desc, enc)
	if err != nil {
		return nil, err
	}
	value, err := decodeText(rest, enc)
	if err != nil {
		return nil, err
	}
	return &UserTextFrame{FrameHeader: h, Encoding: enc, Description: description, Value: value}, nil
}

// UserURLFrame is WXXX: an encoding byte, a terminated description, and an
// unterminated ISO-8859-1 URL.
type UserURLFrame struct {
	FrameHeader
	Encoding    Encoding
	Description string
	URL         string
}

func (f *UserURLFrame) Header() FrameHeader { return f.FrameHeader }

func (f *UserURLFrame) supportsContentVersion(v Version) error { return nil }

func (f *UserURLFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	desc, err := encodeText(f.Description, enc)
	if err != nil {
		return nil, err
	}
	url, err := encodeText(f.URL, ISO88591)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	out = append(out, desc...)
	out = append(out, enc.terminator()...)
	out = append(out, url...)
	return out, nil
}

func decodeUserURLFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "WXXX body is empty"}
	}
	enc := Encoding(body[0])
	desc, rest, ok := splitTerminated(body[1:], enc)
	if !ok {
		return nil, ErrMalformed{Reason: "WXXX description is not terminated"}
	}
	description, err := decodeText(desc, enc)
	if err != nil {
		return nil, err
	}
	url, err := decodeText(rest, ISO88591)
	if err != nil {
		return nil, err
	}
	return &UserURLFrame{FrameHeader: h, Encoding: enc, Description: description, URL: url}, nil
}
