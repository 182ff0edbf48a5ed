//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

// ErrFastEmbedNotAvailable is returned by binaries built without cgo.
var ErrFastEmbedNotAvailable = errors.New("fastembed: not available (built without cgo, use the tei provider)")

type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
}

type FastEmbed struct{}

func NewFastEmbed(_ FastEmbedConfig) (*FastEmbed, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (f *FastEmbed) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (f *FastEmbed) Close() error { return nil }
