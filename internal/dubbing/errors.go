package dubbing

import (
	"errors"

	"github.com/tanmayk15/AutoTranscriber/internal/services"
)

var (
	// ErrNoAudioToComposite means no clip was available; the dub is skipped.
	ErrNoAudioToComposite = errors.Join(errors.New("no audio to composite"), services.ErrDegraded)
	// ErrInvalidMediaDuration means the source reported no usable duration.
	ErrInvalidMediaDuration = errors.Join(errors.New("invalid media duration"), services.ErrDegraded)
)
