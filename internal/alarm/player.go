package alarm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sadopc/timerpie/internal/logger"
)

// Sounder plays one WAV clip at a time.
type Sounder interface {
	// Play blocks until the clip finishes, Stop is called or ctx is
	// cancelled.
	Play(ctx context.Context, wav []byte) error
	Stop()
}

// Silent is a Sounder that plays nothing. Used when sound is off or no
// audio device is available.
type Silent struct{}

func (Silent) Play(context.Context, []byte) error { return nil }
func (Silent) Stop()                              {}

// voice is one playing clip. *oto.Player satisfies it.
type voice interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Player plays WAV data on the system audio device via oto.
type Player struct {
	newVoice func(io.Reader) voice
	log      *logger.Logger
	mu       sync.Mutex
	active   voice
}

// NewPlayer initialises the audio context. Only one oto context may exist
// per process, so create one Player and share it.
func NewPlayer(log *logger.Logger) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	log.Debug("alarm: audio ready (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{
		newVoice: func(r io.Reader) voice { return ctx.NewPlayer(r) },
		log:      log,
	}, nil
}

// Play plays wav synchronously. A Stop that lands before the clip is
// published is caught by the ctx check, since callers cancel ctx first.
func (p *Player) Play(ctx context.Context, wav []byte) error {
	pcm, err := extractPCM(wav)
	if err != nil {
		return err
	}

	player := p.newVoice(bytes.NewReader(pcm))
	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	if ctx.Err() == nil {
		player.Play()
		for player.IsPlaying() && ctx.Err() == nil {
			time.Sleep(10 * time.Millisecond)
		}
	}

	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()
	return player.Close()
}

// Stop interrupts the clip in progress. Safe when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("alarm: playback interrupted")
	}
}

// extractPCM walks the RIFF chunks and returns the data chunk.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		if id == "data" {
			start := pos + 8
			end := min(start+size, len(wav))
			return wav[start:end], nil
		}
		pos += 8 + size + size%2
	}
	return nil, errors.New("wav has no data chunk")
}
