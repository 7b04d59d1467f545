// Command id3dump prints every frame found in the ID3v2 tag at the start
// of each named file, and optionally re-encodes it at a requested version
// to exercise Encode end to end.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mtnolan/id3v2codec"
)

var reencodeVersion = flag.Int("reencode", 0, "if nonzero (2, 3 or 4), re-encode the decoded tag at this ID3v2 version and report the resulting size")

func dumpFile(name string) {
	fmt.Println(name)
	data, err := os.ReadFile(name)
	if err != nil {
		log.Fatal(err)
	}

	tag, err := id3v2.Decode(data)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("version: %s, %d frame(s)\n", tag.Header.Version, len(tag.Frames))
	for _, f := range tag.Frames {
		h := f.Header()
		fmt.Printf("%s (%s): %s\n", h.ID, h.ID, describe(f))
	}

	if *reencodeVersion != 0 {
		v := id3v2.Version(*reencodeVersion)
		out, err := id3v2.Encode(tag.Frames, id3v2.EncodeOptions{ID3Version: &v})
		if err != nil {
			fmt.Printf("re-encode at %s failed: %v\n", v, err)
			return
		}
		fmt.Printf("re-encoded at %s: %d byte(s)\n", v, len(out))
	}
}

func describe(f id3v2.Frame) string {
	switch v := f.(type) {
	case *id3v2.TextFrame:
		return v.Text
	case *id3v2.URLFrame:
		return v.URL
	case *id3v2.UserTextFrame:
		return fmt.Sprintf("%s=%s", v.Description, v.Value)
	case *id3v2.UserURLFrame:
		return fmt.Sprintf("%s=%s", v.Description, v.URL)
	case *id3v2.CommentFrame:
		return v.Text
	case *id3v2.LyricsFrame:
		return v.Text
	case *id3v2.APICFrame:
		return fmt.Sprintf("%s, %s, %d byte(s)", v.MIMEType, v.PictureType, len(v.Data))
	case *id3v2.RawFrame:
		return fmt.Sprintf("%d opaque byte(s)", len(v.Body))
	default:
		return fmt.Sprintf("%T", f)
	}
}

func main() {
	flag.Parse()
	for _, name := range flag.Args() {
		dumpFile(name)
		fmt.Println()
	}
}
