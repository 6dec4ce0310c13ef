// Package tags reads and writes the embedded metadata of downloaded media
// files.
package tags

import "errors"

// Field names a tag slot.
type Field string

const (
	Album       Field = "album"
	Title       Field = "title"
	TrackNumber Field = "tracknumber"
	Artist      Field = "artist"
	AlbumArtist Field = "albumartist"
	Date        Field = "date"
)

// ReadFields are the slots loaded from a file before overwriting.
var ReadFields = []Field{Album, Title, TrackNumber, Artist, AlbumArtist}

// Tags maps tag slots to values. Absent slots read as "".
type Tags map[Field]string

// Empty returns a snapshot with every readable slot present and blank.
func Empty() Tags {
	t := make(Tags, len(ReadFields))
	for _, f := range ReadFields {
		t[f] = ""
	}
	return t
}

var (
	// ErrNoTagHeader means the file carries no tag container at all.
	ErrNoTagHeader = errors.New("no tag header")
	// ErrUnsupportedContainer means the file format cannot hold tags we write.
	ErrUnsupportedContainer = errors.New("unrecognized container format")
)
