package id3v2

import "fmt"

// EncodeOptions configures Encode. A nil TextEncoding means "use the
// per-version default" (see versionDefaults); a nil CRCData or
// TagRestrictions leaves that extended-header material out.
type EncodeOptions struct {
	// ID3Version pins the target ID3v2 revision. Nil means "pick the
	// highest version every frame and option is compatible with."
	ID3Version *Version

	// TextEncoding is the encoding frame codecs that accept a single
	// encoding byte fall back to when the frame's own Encoding is not
	// legal at the target version; a frame whose Encoding is legal keeps
	// it. Nil means "use the per-version default."
	TextEncoding *Encoding

	Unsynchronisation bool
	Experimental      bool
	TagIsAnUpdate     bool
	CRCData           *uint32
	TagRestrictions   *TagRestrictions
}

// versionDefaults holds the static per-version default text encoding:
// v2.2/v2.3 default to ISO-8859-1 (the only encoding both can losslessly
// roundtrip without a BOM dance); v2.4 defaults to UTF-8.
var versionDefaults = map[Version]Encoding{
	Version2: ISO88591,
	Version3: ISO88591,
	Version4: UTF8,
}

func (o EncodeOptions) textEncodingFor(v Version) Encoding {
	if o.TextEncoding != nil {
		return *o.TextEncoding
	}
	return versionDefaults[v]
}

// optionsSupportVersion implements the global legality rules: which
// EncodeOptions are legal at which version, independent of any particular
// frame.
func optionsSupportVersion(o EncodeOptions, v Version) error {
	if !o.textEncodingFor(v).supportedAt(v) {
		return fmt.Errorf("text encoding %s is not supported in %s", o.textEncodingFor(v), v)
	}
	switch v {
	case Version2:
		if o.Experimental {
			return fmt.Errorf("experimental flag is not supported in %s", v)
		}
		if o.TagIsAnUpdate {
			return fmt.Errorf("tagIsAnUpdate is not supported in %s", v)
		}
		if o.CRCData != nil {
			return fmt.Errorf("crcData is not supported in %s", v)
		}
		if o.TagRestrictions != nil {
			return fmt.Errorf("tagRestrictions is not supported in %s", v)
		}
	case Version3:
		if o.TagIsAnUpdate {
			return fmt.Errorf("tagIsAnUpdate is not supported in %s", v)
		}
		if o.TagRestrictions != nil {
			return fmt.Errorf("tagRestrictions is not supported in %s", v)
		}
	case Version4:
		// accepts all
	}
	return nil
}

// Tag is the decoded result of Decode: a tag header plus its ordered
// frame list. Frames preserve their decoded order verbatim.
type Tag struct {
	Header TagHeader
	Frames []Frame
}

// Decode parses a complete ID3v2 tag out of data, which must start at the
// "ID3" signature. Decoding is strict by default: the first unrecognised
// frame identifier aborts the whole tag.
func Decode(data []byte) (*Tag, error) {
	header, err := decodeTagHeader(data)
	if err != nil {
		return nil, err
	}

	if len(data) < header.TagSize {
		return nil, ErrMalformed{Reason: "truncated tag: declared size exceeds input length"}
	}
	region := data[header.HeaderSize:header.TagSize]

	if header.Unsynchronisation {
		region = unsyncDecode(region)
	}

	var frames []Frame
	offset := 0
	for offset < len(region) {
		if offset+1 < len(region) && region[offset] == 0 && region[offset+1] == 0 {
			break // padding
		}

		fh, err := decodeFrameHeader(region[offset:], header.Version)
		if err != nil {
			return nil, err
		}
		if fh == nil {
			break // padding
		}

		bodyStart := offset + fh.HeaderSize
		body := region[bodyStart : bodyStart+fh.BodySize]

		frame, err := decodeFrameBody(fh.ID, fh.Flags, body, header.Version)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)

		offset = bodyStart + fh.BodySize
	}

	return &Tag{Header: *header, Frames: frames}, nil
}

// Encode serializes frames into a complete ID3v2 tag. If opts.ID3Version is
// set, every frame and every global option must be legal at that exact
// version or Encode fails with ErrUnsupportedCombination aggregating every
// violation. Otherwise Encode tries v2.4, then v2.3, then v2.2, and uses
// the first version everything is legal at.
func Encode(frames []Frame, opts EncodeOptions) ([]byte, error) {
	v, err := chooseVersion(frames, opts)
	if err != nil {
		return nil, err
	}

	frameStream, err := encodeFrameStream(frames, opts, v)
	if err != nil {
		return nil, err
	}
	if opts.Unsynchronisation {
		frameStream = unsyncEncode(frameStream)
	}

	header, err := encodeTagHeader(len(frameStream), opts, v)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(header)+len(frameStream))
	out = append(out, header...)
	out = append(out, frameStream...)
	return out, nil
}

// chooseVersion implements the version-selection algorithm: try a pinned
// version, or fall back v2.4 -> v2.3 -> v2.2.
func chooseVersion(frames []Frame, opts EncodeOptions) (Version, error) {
	if opts.ID3Version != nil {
		v := *opts.ID3Version
		if !v.valid() {
			return 0, ErrUnsupportedVersion{Version: int(v)}
		}
		if err := versionSupportsAll(frames, opts, v); err != nil {
			return 0, err
		}
		return v, nil
	}

	attempts := map[Version]error{}
	for _, v := range []Version{Version4, Version3, Version2} {
		if err := versionSupportsAll(frames, opts, v); err != nil {
			attempts[v] = err
			continue
		}
		return v, nil
	}
	return 0, &ErrNoVersion{Attempts: attempts}
}

// versionSupportsAll checks every frame and every global option against v,
// aggregating every failure reason into one ErrUnsupportedCombination
// rather than returning only the first.
func versionSupportsAll(frames []Frame, opts EncodeOptions, v Version) error {
	var reasons []error
	if err := optionsSupportVersion(opts, v); err != nil {
		reasons = append(reasons, err)
	}
	for i, f := range frames {
		if err := f.Header().Flags.supportsVersion(v); err != nil {
			reasons = append(reasons, fmt.Errorf("frame %d (%s): %w", i, f.Header().ID, err))
		}
		if err := f.supportsContentVersion(v); err != nil {
			reasons = append(reasons, fmt.Errorf("frame %d (%s): %w", i, f.Header().ID, err))
		}
	}
	if len(reasons) > 0 {
		return &ErrUnsupportedCombination{Version: v, Reasons: reasons}
	}
	return nil
}

// encodeFrameStream encodes every frame's header and body, in order, and
// concatenates the result.
func encodeFrameStream(frames []Frame, opts EncodeOptions, v Version) ([]byte, error) {
	var out []byte
	for i, f := range frames {
		body, err := f.encodeBody(opts, v)
		if err != nil {
			return nil, fmt.Errorf("frame %d (%s): %w", i, f.Header().ID, err)
		}
		if v == Version2 {
			// v2.2 has no flag byte at all.
			wireID, err := remapForVersion(f.Header().ID, v)
			if err != nil {
				return nil, err
			}
			sizeBytes, err := beBytes(uint64(len(body)), 3)
			if err != nil {
				return nil, err
			}
			out = append(out, []byte(wireID)...)
			out = append(out, sizeBytes...)
			out = append(out, body...)
			continue
		}
		headerBytes, err := encodeFrameHeader(f.Header().ID, f.Header().Flags, len(body), v)
		if err != nil {
			return nil, err
		}
		out = append(out, headerBytes...)
		out = append(out, body...)
	}
	return out, nil
}
