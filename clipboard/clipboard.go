// Package clipboard wraps system clipboard access: pasting a meeting
// transcript into batch mode and copying the last transcription out.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}
