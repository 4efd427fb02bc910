package audio

import "strings"

// DataCallback receives raw PCM16LE mono frames from the capture backend.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

var btKeywords = []string{
	"airpods", "beats", "bose", "jabra", "galaxy buds", "pixel buds",
	"sony wh-", "sony wf-", "powerbeats", "soundcore",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses whether a device name belongs to a bluetooth headset.
// BT microphones drop to a low-bitrate codec while capturing, which hurts
// transcription accuracy, so the picker flags them.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
