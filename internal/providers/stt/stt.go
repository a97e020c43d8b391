package stt

import "context"

// Provider transcribes one recorded oral answer. Confidence is best-effort
// and may be zero for providers that do not report it.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
