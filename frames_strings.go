package id3v2

import "fmt"

func init() {
	registerFrameFactory([]FrameType{"COMM"}, decodeCommentFrame)
	registerFrameFactory([]FrameType{"USLT"}, decodeLyricsFrame)
	registerFrameFactory([]FrameType{"IPLS", "TIPL", "TMCL"}, decodePeopleListFrame)
	registerFrameFactory([]FrameType{"UFID"}, decodeUFIDFrame)
}

// CommentFrame is COMM: encoding byte, 3-byte language code,
// terminated short description, unterminated full text.
type CommentFrame struct {
	FrameHeader
	Encoding    Encoding
	Language    [3]byte
	Description string
	Text        string
}

func (f *CommentFrame) Header() FrameHeader { return f.FrameHeader }

func (f *CommentFrame) supportsContentVersion(v Version) error { return nil }

func (f *CommentFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	desc, err := encodeText(f.Description, enc)
	if err != nil {
		return nil, err
	}
	text, err := encodeText(f.Text, enc)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	out = append(out, f.Language[:]...)
	out = append(out, desc...)
	out = append(out, enc.terminator()...)
	out = append(out, text...)
	return out, nil
}

func decodeCommentFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 4 {
		return nil, ErrMalformed{Reason: "COMM body shorter than its fixed preamble"}
	}
	enc := Encoding(body[0])
	var lang [3]byte
	copy(lang[:], body[1:4])
	desc, rest, ok := splitTerminated(body[4:], enc)
	if !ok {
		return nil, ErrMalformed{Reason: "COMM description is not terminated"}
	}
	description, err := decodeText(desc, enc)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(rest, enc)
	if err != nil {
		return nil, err
	}
	return &CommentFrame{FrameHeader: h, Encoding: enc, Language: lang, Description: description, Text: text}, nil
}

// LyricsFrame is USLT: identical layout to CommentFrame but a
// distinct identifier and semantic ("unsynchronised lyric/text
// transcription" rather than a free comment).
type LyricsFrame struct {
	FrameHeader
	Encoding    Encoding
	Language    [3]byte
	Description string
	Text        string
}

func (f *LyricsFrame) Header() FrameHeader { return f.FrameHeader }

func (f *LyricsFrame) supportsContentVersion(v Version) error { return nil }

func (f *LyricsFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	desc, err := encodeText(f.Description, enc)
	if err != nil {
		return nil, err
	}
	text, err := encodeText(f.Text, enc)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	out = append(out, f.Language[:]...)
	out = append(out, desc...)
	out = append(out, enc.terminator()...)
	out = append(out, text...)
	return out, nil
}

func decodeLyricsFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 4 {
		return nil, ErrMalformed{Reason: "USLT body shorter than its fixed preamble"}
	}
	enc := Encoding(body[0])
	var lang [3]byte
	copy(lang[:], body[1:4])
	desc, rest, ok := splitTerminated(body[4:], enc)
	if !ok {
		return nil, ErrMalformed{Reason: "USLT description is not terminated"}
	}
	description, err := decodeText(desc, enc)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(rest, enc)
	if err != nil {
		return nil, err
	}
	return &LyricsFrame{FrameHeader: h, Encoding: enc, Language: lang, Description: description, Text: text}, nil
}

// PersonListFrame covers IPLS (v2.2/v2.3's single free-text involved-people
// list) and its v2.4 split replacements TIPL/TMCL: an
// encoding byte followed by a flat, terminator-separated sequence of
// alternating (involvement, name) pairs.
type PersonListFrame struct {
	FrameHeader
	Encoding Encoding
	People   []PersonCredit
}

// PersonCredit is one (involvement, name) pair within a PersonListFrame.
type PersonCredit struct {
	Involvement string
	Name        string
}

func (f *PersonListFrame) Header() FrameHeader { return f.FrameHeader }

func (f *PersonListFrame) supportsContentVersion(v Version) error {
	switch f.ID {
	case "IPLS":
		if v == Version4 {
			return fmt.Errorf("IPLS was replaced by TIPL/TMCL in ID3v2.4")
		}
	case "TIPL", "TMCL":
		if v != Version4 {
			return fmt.Errorf("%s is only defined in ID3v2.4", f.ID)
		}
	}
	return nil
}

func (f *PersonListFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	out := []byte{byte(enc)}
	for i, p := range f.People {
		inv, err := encodeText(p.Involvement, enc)
		if err != nil {
			return nil, err
		}
		name, err := encodeText(p.Name, enc)
		if err != nil {
			return nil, err
		}
		out = append(out, inv...)
		out = append(out, enc.terminator()...)
		out = append(out, name...)
		if i != len(f.People)-1 {
			out = append(out, enc.terminator()...)
		}
	}
	return out, nil
}

func decodePeopleListFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: fmt.Sprintf("%s body is empty", h.ID)}
	}
	enc := Encoding(body[0])
	rest := body[1:]
	var people []PersonCredit
	for len(rest) > 0 {
		inv, after, ok := splitTerminated(rest, enc)
		if !ok {
			return nil, ErrMalformed{Reason: fmt.Sprintf("%s has an unterminated involvement field", h.ID)}
		}
		name, after2, ok := splitTerminated(after, enc)
		if !ok {
			name = after
			after2 = nil
		}
		involvement, err := decodeText(inv, enc)
		if err != nil {
			return nil, err
		}
		personName, err := decodeText(name, enc)
		if err != nil {
			return nil, err
		}
		people = append(people, PersonCredit{Involvement: involvement, Name: personName})
		rest = after2
	}
	return &PersonListFrame{FrameHeader: h, Encoding: enc, People: people}, nil
}

// UFIDFrame is UFID: a terminated ISO-8859-1 owner identifier (at most 64
// bytes) followed by up to 64 bytes of opaque binary identifier data.
type UFIDFrame struct {
	FrameHeader
	Owner      string
	Identifier []byte
}

func (f *UFIDFrame) Header() FrameHeader { return f.FrameHeader }

func (f *UFIDFrame) supportsContentVersion(v Version) error { return nil }

func (f *UFIDFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	if f.Owner == "" {
		return nil, ErrOutOfRange{Field: "UFID owner", Reason: "must not be empty"}
	}
	owner, err := encodeText(f.Owner, ISO88591)
	if err != nil {
		return nil, err
	}
	if len(owner) > 64 {
		return nil, ErrOutOfRange{Field: "UFID owner", Reason: "exceeds 64 bytes"}
	}
	if len(f.Identifier) > 64 {
		return nil, ErrOutOfRange{Field: "UFID identifier", Reason: "exceeds 64 bytes"}
	}
	out := append(owner, 0)
	out = append(out, f.Identifier...)
	return out, nil
}

func decodeUFIDFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	owner, rest, ok := splitTerminated(body, ISO88591)
	if !ok {
		return nil, ErrMalformed{Reason: "UFID owner is not terminated"}
	}
	if len(owner) == 0 {
		return nil, ErrOutOfRange{Field: "UFID owner", Reason: "must not be empty"}
	}
	if len(owner) > 64 {
		return nil, ErrOutOfRange{Field: "UFID owner", Reason: "exceeds 64 bytes"}
	}
	if len(rest) > 64 {
		return nil, ErrOutOfRange{Field: "UFID identifier", Reason: "exceeds 64 bytes"}
	}
	ownerStr, err := decodeText(owner, ISO88591)
	if err != nil {
		return nil, err
	}
	identifier := make([]byte, len(rest))
	copy(identifier, rest)
	return &UFIDFrame{FrameHeader: h, Owner: ownerStr, Identifier: identifier}, nil
}
