// Package testsupport builds media fixtures for package tests.
package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

// mpegFrameSize is one MPEG-1 Layer III frame at 128 kbps / 44.1 kHz.
const mpegFrameSize = 417

// MPEGFrames returns n consecutive silent MPEG audio frames.
func MPEGFrames(n int) []byte {
	if n <= 0 {
		n = 1
	}
	frame := make([]byte, mpegFrameSize)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
	return bytes.Repeat(frame, n)
}

// MP3 returns MPEG audio bytes prefixed by an ID3v2.4 tag holding the given
// text frames (frame ID to value). An empty map yields untagged audio.
func MP3(t testing.TB, frames map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	if len(frames) > 0 {
		tag := id3v2.NewEmptyTag()
		tag.SetVersion(4)
		for id, value := range frames {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
		if _, err := tag.WriteTo(&buf); err != nil {
			t.Fatalf("write id3 tag: %v", err)
		}
	}
	buf.Write(MPEGFrames(8))
	return buf.Bytes()
}

// WriteMP3 writes MP3(frames) to path, creating parent directories.
func WriteMP3(t testing.TB, path string, frames map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, MP3(t, frames), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
