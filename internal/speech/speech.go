// Package speech turns recorded audio into text. The resulting transcript is
// handled downstream exactly like a typed query.
package speech

import "context"

// Transcriber converts raw audio bytes into a transcript string.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
