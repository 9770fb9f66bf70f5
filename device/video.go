package device

import (
	"sync"
	"time"

	"github.com/davecheney/bk/clock"
	"github.com/davecheney/bk/memory"
	"github.com/davecheney/bk/state"
)

const VideoScrollAddress = 0177664

const (
	videoScrollMask       = 0377
	videoScrollFullScreen = 1 << 9
)

// frame period of the 50 Hz vertical sync.
const framePeriod = 20 * time.Millisecond

// Screen geometry.
const (
	ScreenWidth        = 512
	ScreenHeight       = 256
	ScreenBytesPerLine = 64
)

// Video is the video controller: the scroll register and, on the BK-0011M,
// the 50 Hz frame interrupt and screen buffer page selection.
type Video struct {
	mu            sync.Mutex
	irq           Interrupts
	ticksPerFrame int64
	screens       []*memory.Block // screen buffer pages, index 0 on the BK-0010

	scroll     uint16
	screen     int
	palette    int
	irqEnabled bool
	frameIRQ   bool
	lastFrame  int64
}

// NewVideo returns a video controller. screens lists the memory pages that
// can be displayed; frameIRQ enables the BK-0011M 50 Hz interrupt.
func NewVideo(irq Interrupts, freq clock.Frequency, frameIRQ bool, screens ...*memory.Block) *Video {
	return &Video{
		irq:           irq,
		ticksPerFrame: freq.Ticks(framePeriod),
		screens:       screens,
		frameIRQ:      frameIRQ,
	}
}

func (v *Video) Addresses() []uint16 { return []uint16{VideoScrollAddress} }

func (v *Video) Init(cpuTime int64, isHardwareReset bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if isHardwareReset {
		v.scroll = 0330 | videoScrollFullScreen
		v.screen = 0
		v.palette = 0
		v.irqEnabled = false
		v.lastFrame = cpuTime
	}
}

func (v *Video) Read(cpuTime int64, address uint16) (uint16, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scroll & (videoScrollMask | videoScrollFullScreen), true
}

func (v *Video) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scroll = merge(isByteMode, address, value, v.scroll) & (videoScrollMask | videoScrollFullScreen)
	return true
}

// Timer raises IRQ2 once per frame while the frame interrupt is enabled.
func (v *Video) Timer(cpuTime int64) {
	if cpuTime-v.lastFrame < v.ticksPerFrame {
		return
	}
	v.lastFrame += (cpuTime - v.lastFrame) / v.ticksPerFrame * v.ticksPerFrame
	v.mu.Lock()
	raise := v.frameIRQ && v.irqEnabled
	v.mu.Unlock()
	if raise {
		v.irq.RequestIRQ2()
	}
}

func (v *Video) setIRQEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.irqEnabled = enabled
}

func (v *Video) setScreen(screen, palette int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if screen < len(v.screens) {
		v.screen = screen
	}
	v.palette = palette
}

// ScrollOffset returns the vertical scroll offset in lines.
func (v *Video) ScrollOffset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return int(v.scroll & videoScrollMask)
}

// IsFullScreen reports whether all 256 lines are displayed; otherwise only
// the top quarter of the screen buffer is shown.
func (v *Video) IsFullScreen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scroll&videoScrollFullScreen != 0
}

// Palette returns the BK-0011M palette number.
func (v *Video) Palette() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.palette
}

// ScreenBuffer returns the memory page being displayed.
func (v *Video) ScreenBuffer() *memory.Block {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.screens) == 0 {
		return nil
	}
	return v.screens[v.screen]
}

// Line returns the screen buffer offset of displayed line y, taking the
// scroll register into account.
func (v *Video) Line(y int) int {
	off := v.ScrollOffset()
	return ((y + off - 0330) & 0377) * ScreenBytesPerLine
}

func (v *Video) SaveState(s *state.Bundle) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s.PutInt("video.scroll", int(v.scroll))
	s.PutInt("video.screen", v.screen)
	s.PutInt("video.palette", v.palette)
	s.PutBool("video.irqenabled", v.irqEnabled)
	s.PutInt64("video.lastframe", v.lastFrame)
}

func (v *Video) RestoreState(s *state.Bundle) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	r := state.NewReader(s)
	v.scroll = uint16(r.Int("video.scroll"))
	v.screen = r.Int("video.screen")
	v.palette = r.Int("video.palette")
	v.irqEnabled = r.Bool("video.irqenabled")
	v.lastFrame = r.Int64("video.lastframe")
	if v.screen >= len(v.screens) {
		v.screen = 0
	}
	return r.Err()
}

const VideoManagerAddress = KeyboardDataAddress

const (
	videoManagerPaletteShift = 8
	videoManagerPaletteMask  = 017
	videoManagerIRQDisable   = 1 << 14
	videoManagerScreenSelect = 1 << 15
)

// VideoManager is the BK-0011M write only register sharing its address with
// the keyboard data register. It selects palette, screen buffer and enables
// the frame interrupt.
type VideoManager struct {
	video *Video
	value uint16
}

// NewVideoManager returns a manager controlling video.
func NewVideoManager(video *Video) *VideoManager {
	return &VideoManager{video: video}
}

func (vm *VideoManager) Addresses() []uint16 { return []uint16{VideoManagerAddress} }

func (vm *VideoManager) Init(cpuTime int64, isHardwareReset bool) {
	if isHardwareReset {
		vm.apply(videoManagerIRQDisable)
	}
}

func (vm *VideoManager) Read(cpuTime int64, address uint16) (uint16, bool) {
	return 0, false
}

func (vm *VideoManager) Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool {
	vm.apply(merge(isByteMode, address, value, vm.value))
	return true
}

func (vm *VideoManager) apply(value uint16) {
	vm.value = value
	screen := 0
	if value&videoManagerScreenSelect != 0 {
		screen = 1
	}
	vm.video.setScreen(screen, int(value>>videoManagerPaletteShift&videoManagerPaletteMask))
	vm.video.setIRQEnabled(value&videoManagerIRQDisable == 0)
}

func (vm *VideoManager) SaveState(s *state.Bundle) {
	s.PutInt("videomanager.value", int(vm.value))
}

func (vm *VideoManager) RestoreState(s *state.Bundle) error {
	r := state.NewReader(s)
	v := r.Int("videomanager.value")
	if err := r.Err(); err != nil {
		return err
	}
	vm.value = uint16(v)
	return nil
}
