package tags

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/bogem/id3v2/v2"
	"github.com/gabriel-vasile/mimetype"
)

// frameIDs maps tag slots to ID3v2.4 text frames.
var frameIDs = map[Field]string{
	Album:       "TALB",
	Title:       "TIT2",
	TrackNumber: "TRCK",
	Artist:      "TPE1",
	AlbumArtist: "TPE2",
	Date:        "TDRC",
}

// writableTypes are the containers an ID3v2 tag may be prepended to.
var writableTypes = []string{"audio/mpeg", "audio/aac"}

// ID3Codec reads and writes ID3v2 tags.
type ID3Codec struct{}

// Read returns the readable slots of the file's ID3v2 tag. A file without
// an ID3v2 header yields ErrNoTagHeader.
func (ID3Codec) Read(path string) (Tags, error) {
	tagged, err := hasID3Header(path)
	if err != nil {
		return nil, err
	}
	if !tagged {
		return nil, ErrNoTagHeader
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("parsing id3 tag: %w", err)
	}
	defer tag.Close()

	t := Empty()
	for _, f := range ReadFields {
		t[f] = tag.GetTextFrame(frameIDs[f]).Text
	}
	return t, nil
}

// Write sets the given slots, creating an ID3v2.4 tag when the file has
// none. Files that are not MPEG or ADTS audio are rejected with
// ErrUnsupportedContainer.
func (ID3Codec) Write(path string, values Tags) error {
	if err := checkWritable(path); err != nil {
		return err
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening id3 tag: %w", err)
	}
	defer tag.Close()

	// UTF-8 text frames require v2.4.
	tag.SetVersion(4)
	for field, value := range values {
		id, ok := frameIDs[field]
		if !ok {
			return fmt.Errorf("unknown tag field %q", field)
		}
		tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}
	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving id3 tag: %w", err)
	}
	return nil
}

func hasID3Header(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 3)
	if _, err := io.ReadFull(f, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, []byte("ID3")), nil
}

func checkWritable(path string) error {
	tagged, err := hasID3Header(path)
	if err != nil {
		return err
	}
	if tagged {
		return nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("sniffing container: %w", err)
	}
	for _, t := range writableTypes {
		if mtype.Is(t) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedContainer, mtype.String())
}
