package pipeline

import "errors"

var (
	// ErrDownload means the enclosure could not be fetched or was empty.
	ErrDownload = errors.New("download failed")
	// ErrTagWrite means the tag overwrite could not be saved.
	ErrTagWrite = errors.New("tag write failed")
	// ErrRelocation means the file could not be moved into the library.
	ErrRelocation = errors.New("relocation failed")
	// ErrInterrupted means a download was cancelled through the Interrupter.
	ErrInterrupted = errors.New("download interrupted")
	// ErrAborted means the run was stopped in response to an interrupt.
	ErrAborted = errors.New("run aborted")
)
