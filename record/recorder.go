// Package record owns the audio-capture-to-bytes lifecycle: one capture
// session at a time, PCM accumulated through an encoder off the device
// callback, one finished payload per session.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"vira/audio"
	"vira/encoder"
)

var (
	// ErrDeviceUnavailable means the capture backend could not open a
	// device (denied permission, unplugged, no device at all). Reported to
	// the user, never retried automatically.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrAlreadyRecording rejects Begin while a session is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
)

// Payload is the single opaque product of one recording session.
type Payload struct {
	Bytes    []byte
	Format   string
	Duration time.Duration
}

// Recorder drives one capture device. Encoding runs on its own goroutine
// fed from the device callback, the way the device's realtime thread
// expects: the callback only buffers.
type Recorder struct {
	device audio.CaptureDevice
	format string

	mu        sync.Mutex
	active    bool
	enc       encoder.Encoder
	sampleBuf []int16
	blockChan chan []int16
	encDone   chan struct{}
	started   time.Time

	tickStop chan struct{}
	onTick   func(elapsed time.Duration)
}

func New(device audio.CaptureDevice, format string) *Recorder {
	return &Recorder{device: device, format: format}
}

// OnElapsed registers a display-only callback invoked roughly every 100ms
// with the session's elapsed time. Must be set before Begin.
func (r *Recorder) OnElapsed(fn func(time.Duration)) {
	r.onTick = fn
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Begin arms the device and starts encoding. Only one session may be
// active; a second Begin is rejected with ErrAlreadyRecording.
func (r *Recorder) Begin() error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}

	enc, err := encoder.New(r.format)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	r.enc = enc
	r.sampleBuf = nil
	r.blockChan = make(chan []int16, 64)
	r.encDone = make(chan struct{})
	blockChan, encDone := r.blockChan, r.encDone

	go func() {
		defer close(encDone)
		for block := range blockChan {
			enc.EncodeBlock(block)
		}
	}()

	// The session must be live before the device starts: backends may
	// deliver data synchronously from Start, and feed drops frames of an
	// inactive session.
	r.active = true
	r.started = time.Now()

	if r.onTick != nil {
		r.tickStop = make(chan struct{})
		go func(start time.Time, stop <-chan struct{}, tick func(time.Duration)) {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					tick(time.Since(start))
				}
			}
		}(r.started, r.tickStop, r.onTick)
	}
	r.mu.Unlock()

	r.device.SetCallback(r.feed)
	if err := r.device.Start(); err != nil {
		r.device.ClearCallback()
		r.mu.Lock()
		r.active = false
		if r.tickStop != nil {
			close(r.tickStop)
			r.tickStop = nil
		}
		close(r.blockChan)
		r.mu.Unlock()
		<-encDone
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

// feed is the device data callback: split PCM16LE bytes into fixed blocks
// for the encoder goroutine.
func (r *Recorder) feed(data []byte, _ uint32) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		r.sampleBuf = append(r.sampleBuf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	var blocks [][]int16
	for len(r.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, r.sampleBuf[:encoder.BlockSize])
		r.sampleBuf = r.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	ch := r.blockChan
	r.mu.Unlock()

	for _, block := range blocks {
		ch <- block
	}
}

// End finalizes the session and yields exactly one payload. Calling End
// when no session is active is a no-op, reported by ok=false.
func (r *Recorder) End() (Payload, bool, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return Payload{}, false, nil
	}
	r.active = false
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
	r.mu.Unlock()

	r.device.Stop()
	r.device.ClearCallback()

	r.mu.Lock()
	if len(r.sampleBuf) > 0 {
		partial := make([]int16, len(r.sampleBuf))
		copy(partial, r.sampleBuf)
		r.sampleBuf = nil
		r.blockChan <- partial
	}
	close(r.blockChan)
	enc := r.enc
	encDone := r.encDone
	started := r.started
	r.mu.Unlock()

	<-encDone
	if err := enc.Close(); err != nil {
		return Payload{}, true, fmt.Errorf("finalizing %s payload: %w", r.format, err)
	}

	return Payload{
		Bytes:    enc.Bytes(),
		Format:   r.format,
		Duration: time.Since(started),
	}, true, nil
}
