package chip8

import "sync/atomic"

// KeyState is a Keypad fed by UI event callbacks. It is safe to update from
// a goroutine other than the one running the processor.
type KeyState struct {
	keys [KeyCount]atomic.Bool
}

func (k *KeyState) Set(key uint8, pressed bool) {
	k.keys[key&0x0F].Store(pressed)
}

func (k *KeyState) IsPressed(key uint8) bool {
	return k.keys[key&0x0F].Load()
}

// Release clears every key.
func (k *KeyState) Release() {
	for i := range k.keys {
		k.keys[i].Store(false)
	}
}
