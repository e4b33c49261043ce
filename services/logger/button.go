package logger

import "tracklog-go/types"

// Button debounces an active-low momentary switch and classifies presses.
// Poll is called from the control loop; events are one-shot and cleared by
// the Take accessors.
type Button struct {
	pin types.GPIOPin

	debounceMs  int64
	longPressMs int64

	rawPressed   bool
	lastChangeMs int64
	pressed      bool // debounced state
	pressStartMs int64

	shortClick bool
	longPress  bool
}

func NewButton(pin types.GPIOPin, debounceMs, longPressMs int64) *Button {
	return &Button{
		pin:         pin,
		debounceMs:  debounceMs,
		longPressMs: longPressMs,
	}
}

// Poll samples the pin and advances the debounce state machine.
func (b *Button) Poll(nowMs int64) {
	raw := !b.pin.Get() // active low
	if raw != b.rawPressed {
		b.rawPressed = raw
		b.lastChangeMs = nowMs
	}

	if raw != b.pressed && nowMs-b.lastChangeMs >= b.debounceMs {
		b.pressed = raw
		if b.pressed {
			b.pressStartMs = nowMs
		} else if nowMs-b.pressStartMs >= b.longPressMs {
			// Classified on release: the held duration decides the event.
			b.longPress = true
		} else {
			b.shortClick = true
		}
	}
}

// Pressed reports the debounced level.
func (b *Button) Pressed() bool { return b.pressed }

// TakeShortClick returns and clears the pending short-click event.
func (b *Button) TakeShortClick() bool {
	v := b.shortClick
	b.shortClick = false
	return v
}

// TakeLongPress returns and clears the pending long-press event.
func (b *Button) TakeLongPress() bool {
	v := b.longPress
	b.longPress = false
	return v
}

func (b *Button) SetTiming(debounceMs, longPressMs int64) {
	if debounceMs > 0 {
		b.debounceMs = debounceMs
	}
	if longPressMs > 0 {
		b.longPressMs = longPressMs
	}
}
