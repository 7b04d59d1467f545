// Package id3v2 implements a byte-exact reader and writer for the ID3v2.2,
// ID3v2.3 and ID3v2.4 metadata container that prefixes MP3 (and related)
// audio files.
//
// The package is a pure codec: Decode takes a byte slice and returns a Tag
// plus an ordered list of Frames; Encode takes a []Frame and an
// EncodeOptions and returns a freshly allocated byte slice. Neither
// function touches a filesystem, a network connection, or the audio
// payload that follows the tag in a real file — gluing the codec to a
// whole file is left to callers.
package id3v2

import (
	"fmt"
	"log"
)

// Logging enables diagnostic output for lossy or ambiguous decisions the
// codec makes, such as resolveEncoding silently swapping in a version's
// default text encoding when a frame asks for one that isn't legal at the
// target version. It is a cheap opt-in gate rather than a structured
// logging dependency, kept out of the hot codec path.
var Logging LogFlag

type LogFlag bool

func (l LogFlag) Println(args ...interface{}) {
	if l {
		log.Println(args...)
	}
}

// Version identifies one of the three ID3v2 revisions this codec supports.
type Version int

const (
	Version2 Version = 2
	Version3 Version = 3
	Version4 Version = 4
)

func (v Version) String() string {
	switch v {
	case Version2:
		return "ID3v2.2.0"
	case Version3:
		return "ID3v2.3.0"
	case Version4:
		return "ID3v2.4.0"
	default:
		return fmt.Sprintf("ID3v2.%d (unsupported)", int(v))
	}
}

func (v Version) valid() bool {
	return v == Version2 || v == Version3 || v == Version4
}

// idWidth returns the byte width of a frame identifier at this version: 3
// for v2.2, 4 for v2.3/v2.4.
func (v Version) idWidth() int {
	if v == Version2 {
		return 3
	}
	return 4
}

// FrameType is a frame identifier. Internally it is always stored in its
// canonical (v2.3/v2.4, 4-character) form; v2.2's 3-character identifiers
// are remapped to this form on decode and remapped back on encode at
// Version2 — see remapToCanonical / remapToV22 in encoding.go.
type FrameType string

// FrameNames gives the human-readable name of every identifier this codec
// decodes into a dedicated frame type, plus the standard v2.3/v2.4 text
// information and URL link identifiers. Other standard identifiers (PRIV,
// LINK, OWNE and the like) have no entry, and FrameType.String returns
// them unchanged. Descriptive only — it plays no role in encode/decode.
var FrameNames = map[FrameType]string{
	"AENC": "Audio encryption",
	"APIC": "Attached picture",
	"COMM": "Comments",
	"EQU2": "Equalisation (2)",
	"EQUA": "Equalisation",
	"ETCO": "Event timing codes",
	"GEOB": "General encapsulated object",
	"IPLS": "Involved people list",
	"MCDI": "Music CD identifier",
	"MLLT": "MPEG location lookup table",
	"PCNT": "Play counter",
	"POPM": "Popularimeter",
	"RBUF": "Recommended buffer size",
	"RVA2": "Relative volume adjustment (2)",
	"RVAD": "Relative volume adjustment",
	"RVRB": "Reverb",
	"SYLT": "Synchronised lyric/text",
	"SYTC": "Synchronised tempo codes",
	"TALB": "Album/Movie/Show title",
	"TBPM": "BPM (beats per minute)",
	"TCOM": "Composer",
	"TCON": "Content type",
	"TCOP": "Copyright message",
	"TDEN": "Encoding time",
	"TDLY": "Playlist delay",
	"TDOR": "Original release time",
	"TDRC": "Recording time",
	"TDRL": "Release time",
	"TDTG": "Tagging time",
	"TENC": "Encoded by",
	"TEXT": "Lyricist/Text writer",
	"TFLT": "File type",
	"TIPL": "Involved people list",
	"TIT1": "Content group description",
	"TIT2": "Title/songname/content description",
	"TIT3": "Subtitle/Description refinement",
	"TKEY": "Initial key",
	"TLAN": "Language(s)",
	"TLEN": "Length",
	"TMCL": "Musician credits list",
	"TMED": "Media type",
	"TMOO": "Mood",
	"TOAL": "Original album/movie/show title",
	"TOFN": "Original filename",
	"TOLY": "Original lyricist(s)/text writer(s)",
	"TOPE": "Original artist(s)/performer(s)",
	"TORY": "Original release year",
	"TOWN": "File owner/licensee",
	"TPE1": "Lead performer(s)/Soloist(s)",
	"TPE2": "Band/orchestra/accompaniment",
	"TPE3": "Conductor/performer refinement",
	"TPE4": "Interpreted, remixed, or otherwise modified by",
	"TPOS": "Part of a set",
	"TPRO": "Produced notice",
	"TPUB": "Publisher",
	"TRCK": "Track number/Position in set",
	"TRDA": "Recording dates",
	"TRSN": "Internet radio station name",
	"TRSO": "Internet radio station owner",
	"TSIZ": "Size",
	"TSOA": "Album sort order",
	"TSOP": "Performer sort order",
	"TSOT": "Title sort order",
	"TSRC": "ISRC (international standard recording code)",
	"TSSE": "Software/Hardware and settings used for encoding",
	"TSST": "Set subtitle",
	"TDAT": "Date",
	"TIME": "Time",
	"TYER": "Year",
	"TXXX": "User defined text information frame",
	"UFID": "Unique file identifier",
	"USLT": "Unsynchronised lyric/text transcription",
	"WCOM": "Commercial information",
	"WCOP": "Copyright/Legal information",
	"WOAF": "Official audio file webpage",
	"WOAR": "Official artist/performer webpage",
	"WOAS": "Official audio source webpage",
	"WORS": "Official Internet radio station homepage",
	"WPAY": "Payment",
	"WPUB": "Publishers official webpage",
	"WXXX": "User defined URL link frame",
}

func (f FrameType) String() string {
	if v, ok := FrameNames[f]; ok {
		return v
	}
	return string(f)
}

// PictureType is the single-byte APIC/PIC "picture type" enumeration.
type PictureType byte

var PictureTypes = []string{
	"Other",
	"32x32 pixels 'file icon' (PNG only)",
	"Other file icon",
	"Cover (front)",
	"Cover (back)",
	"Leaflet page",
	"Media (e.g. label side of CD)",
	"Lead artist/lead performer/soloist",
	"Artist/performer",
	"Conductor",
	"Band/Orchestra",
	"Composer",
	"Lyricist/text writer",
	"Recording Location",
	"During recording",
	"During performance",
	"Movie/video screen capture",
	"A bright coloured fish",
	"Illustration",
	"Band/artist logotype",
	"Publisher/Studio logotype",
}

func (p PictureType) String() string {
	if int(p) >= len(PictureTypes) {
		return ""
	}
	return PictureTypes[p]
}

// removedInV4 records the well-known set of text-information identifiers
// that exist in v2.2/v2.3 but were dropped from v2.4.
var removedInV4 = map[FrameType]bool{
	"TDAT": true,
	"TIME": true,
	"TORY": true,
	"TRDA": true,
	"TSIZ": true,
	"TYER": true,
}
