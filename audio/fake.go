package audio

import "sync"

const fakeChunkFrames = 1024

// FakeContext is an in-memory capture backend for tests. Each capture it
// hands out replays the configured PCM once on Start and then goes quiet.
type FakeContext struct {
	PCM      []byte
	StartErr error
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.PCM, startErr: f.StartErr}, nil
}

func (f *FakeContext) Close() {}

type FakeCapture struct {
	pcm      []byte
	startErr error

	mu      sync.Mutex
	cb      DataCallback
	started bool
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	cb := f.cb
	f.started = true
	f.mu.Unlock()

	if cb == nil {
		return nil
	}
	chunkBytes := fakeChunkFrames * 2
	for pos := 0; pos < len(f.pcm); pos += chunkBytes {
		end := min(pos+chunkBytes, len(f.pcm))
		chunk := make([]byte, end-pos)
		copy(chunk, f.pcm[pos:end])
		cb(chunk, uint32(len(chunk)/2))
	}
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
}

func (f *FakeCapture) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *FakeCapture) Close() {}

func (f *FakeCapture) DeviceName() string { return "fake" }
