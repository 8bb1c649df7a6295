// broadcast.go — JPEG fan-out sink backing the HTTP preview stream.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Broadcaster is a Sink that keeps the latest frame as JPEG and pushes each new
// frame to every subscriber. Slow subscribers skip frames instead of blocking
// the preview.
type Broadcaster struct {
	quality int

	mu     sync.Mutex
	latest []byte
	status Status
	subs   map[chan []byte]struct{}
}

// NewBroadcaster creates a broadcaster encoding at the given JPEG quality.
func NewBroadcaster(quality int) *Broadcaster {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &Broadcaster{quality: quality, subs: make(map[chan []byte]struct{})}
}

// Present encodes img and publishes it.
func (b *Broadcaster) Present(img image.Image, st Status) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(b.quality)); err != nil {
		return fmt.Errorf("encode JPEG: %w", err)
	}
	frame := buf.Bytes()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = frame
	b.status = st
	for ch := range b.subs {
		select {
		case ch <- frame:
		default:
			// Replace the stale frame the subscriber has not read yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
	return nil
}

// Latest returns the most recent JPEG frame and its status. The frame is nil
// until the first Present.
func (b *Broadcaster) Latest() ([]byte, Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.status
}

// Subscribe registers a frame channel. The latest frame, if any, is delivered
// first. Call the returned function to unsubscribe.
func (b *Broadcaster) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)
	b.mu.Lock()
	if b.latest != nil {
		ch <- b.latest
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

// Subscribers reports how many streams are attached.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
