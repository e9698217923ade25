/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chip8

import (
	"chip8emu/byteconv"
)

func clearScreen(p *Processor) {
	p.clearDisplay()
}

func callSubroutine(p *Processor, nnn uint16) error {
	if err := p.push(p.pc); err != nil {
		return err
	}
	p.pc = nnn
	return nil
}

func returnFromSubroutine(p *Processor) error {
	addr, err := p.pop()
	if err != nil {
		return err
	}
	p.pc = addr
	return nil
}

func jumpToLocation(p *Processor, nnn uint16) {
	p.pc = nnn
}

// The offset is always V0. Interpreters that add VX (X taken from the
// high nibble of NNN) are not supported.
func jumpWithOffset(p *Processor, nnn uint16) {
	p.pc = nnn + uint16(p.v[0x0])
}

func stepIfXEqualsNN(p *Processor, x, nn uint8) {
	if p.v[x] == nn {
		p.pc += 2
	}
}

func stepIfXNotEqualsNN(p *Processor, x, nn uint8) {
	if p.v[x] != nn {
		p.pc += 2
	}
}

func stepIfXEqualsY(p *Processor, x, y uint8) {
	if p.v[x] == p.v[y] {
		p.pc += 2
	}
}

func stepIfXNotEqualsY(p *Processor, x, y uint8) {
	if p.v[x] != p.v[y] {
		p.pc += 2
	}
}

func setXToNN(p *Processor, x, nn uint8) {
	p.v[x] = nn
}

func addNNToX(p *Processor, x, nn uint8) {
	p.v[x] += nn
}

func setXToY(p *Processor, x, y uint8) {
	p.v[x] = p.v[y]
}

func orXY(p *Processor, x, y uint8) {
	p.v[x] |= p.v[y]
}

func andXY(p *Processor, x, y uint8) {
	p.v[x] &= p.v[y]
}

func xorXY(p *Processor, x, y uint8) {
	p.v[x] ^= p.v[y]
}

// The flag is written before the result, so with X == F the result wins.
func addXY(p *Processor, x, y uint8) {
	vx, vy := p.v[x], p.v[y]
	p.v[CarryFlag] = 0
	if uint16(vx)+uint16(vy) > 0xFF {
		p.v[CarryFlag] = 1
	}
	p.v[x] = vx + vy
}

func subtractYFromX(p *Processor, x, y uint8) {
	vx, vy := p.v[x], p.v[y]
	p.v[CarryFlag] = 0
	if vx >= vy {
		p.v[CarryFlag] = 1
	}
	p.v[x] = vx - vy
}

func subtractXFromY(p *Processor, x, y uint8) {
	vx, vy := p.v[x], p.v[y]
	p.v[CarryFlag] = 0
	if vy >= vx {
		p.v[CarryFlag] = 1
	}
	p.v[x] = vy - vx
}

// Shifts leave VF untouched.
func shiftRightX(p *Processor, x uint8) {
	p.v[x] >>= 1
}

func shiftLeftX(p *Processor, x uint8) {
	p.v[x] <<= 1
}

func setIToNNN(p *Processor, nnn uint16) {
	p.i = nnn
}

func setXToRandom(p *Processor, x, nn uint8) {
	p.v[x] = p.rand() & nn
}

func drawSprite(p *Processor, x, y, n uint8, info *Info) {
	p.DrawSprite(p.v[x], p.v[y], n)
	*info |= Redraw
}

func stepIfKeyDown(p *Processor, x uint8) {
	if p.keypad.IsPressed(p.v[x] & 0x0F) {
		p.pc += 2
	}
}

func stepIfKeyUp(p *Processor, x uint8) {
	if !p.keypad.IsPressed(p.v[x] & 0x0F) {
		p.pc += 2
	}
}

func setXToDelay(p *Processor, x uint8) {
	p.v[x] = p.delay
}

// If the key is already held the wait completes immediately, otherwise the
// processor parks in AwaitingKey until Step sees the key.
func pauseUntilKeyPressed(p *Processor, x uint8, info *Info) {
	if key, ok := p.heldKey(); ok {
		p.v[x] = key
		return
	}
	p.state = AwaitingKey
	p.waitReg = x
	*info |= Waiting
}

func setDelayToX(p *Processor, x uint8) {
	p.delay = p.v[x]
}

func soundAlert(info *Info) {
	*info |= Alert
}

func addXToI(p *Processor, x uint8) {
	p.i += uint16(p.v[x])
}

func setIToSymbol(p *Processor, x uint8) {
	digit := uint16(p.v[x] & 0x0F)
	p.i = p.fontBase + digit*GlyphHeight
}

func binaryCodedDecimal(p *Processor, x uint8) {
	vx := p.v[x]
	p.store(p.i, vx/100)
	p.store(p.i+1, (vx%100)/10)
	p.store(p.i+2, vx%10)
}

func setRegistersToMemory(p *Processor, x uint8) {
	for i := uint8(0); i <= x; i++ {
		p.store(p.i+uint16(i), p.v[i])
	}
}

func setMemoryToRegisters(p *Processor, x uint8) {
	for i := uint8(0); i <= x; i++ {
		p.v[i] = p.load(p.i + uint16(i))
	}
}

func (p *Processor) execute(op Opcode, info *Info) error {
	x, y := op.x(), op.y()

	switch op.kind() {
	case 0x0:
		switch op.n() {
		case 0x0:
			clearScreen(p)
		case 0xE:
			return returnFromSubroutine(p)
		default:
			return ErrUnknownOpcode
		}
	case 0x1:
		jumpToLocation(p, op.nnn())
	case 0x2:
		return callSubroutine(p, op.nnn())
	case 0x3:
		stepIfXEqualsNN(p, x, op.nn())
	case 0x4:
		stepIfXNotEqualsNN(p, x, op.nn())
	case 0x5:
		stepIfXEqualsY(p, x, y)
	case 0x6:
		setXToNN(p, x, op.nn())
	case 0x7:
		addNNToX(p, x, op.nn())
	case 0x8:
		switch op.n() {
		case 0x0:
			setXToY(p, x, y)
		case 0x1:
			orXY(p, x, y)
		case 0x2:
			andXY(p, x, y)
		case 0x3:
			xorXY(p, x, y)
		case 0x4:
			addXY(p, x, y)
		case 0x5:
			subtractYFromX(p, x, y)
		case 0x6:
			shiftRightX(p, x)
		case 0x7:
			subtractXFromY(p, x, y)
		case 0xE:
			shiftLeftX(p, x)
		default:
			return ErrUnknownOpcode
		}
	case 0x9:
		stepIfXNotEqualsY(p, x, y)
	case 0xA:
		setIToNNN(p, op.nnn())
	case 0xB:
		jumpWithOffset(p, op.nnn())
	case 0xC:
		setXToRandom(p, x, op.nn())
	case 0xD:
		drawSprite(p, x, y, op.n(), info)
	case 0xE:
		switch op.nn() {
		case 0x9E:
			stepIfKeyDown(p, x)
		case 0xA1:
			stepIfKeyUp(p, x)
		default:
			return ErrUnknownOpcode
		}
	case 0xF:
		switch op.nn() {
		case 0x07:
			setXToDelay(p, x)
		case 0x0A:
			pauseUntilKeyPressed(p, x, info)
		case 0x15:
			setDelayToX(p, x)
		case 0x18:
			soundAlert(info)
		case 0x1E:
			addXToI(p, x)
		case 0x29:
			setIToSymbol(p, x)
		case 0x33:
			binaryCodedDecimal(p, x)
		case 0x55:
			setRegistersToMemory(p, x)
		case 0x65:
			setMemoryToRegisters(p, x)
		default:
			return ErrUnknownOpcode
		}
	}
	return nil
}

type Opcode uint16

func (o Opcode) kind() uint8 {
	return uint8((uint16(o) & 0xF000) >> 12)
}

func (o Opcode) x() uint8 {
	return uint8((uint16(o) & 0x0F00) >> 8)
}

func (o Opcode) y() uint8 {
	return uint8((uint16(o) & 0x00F0) >> 4)
}

func (o Opcode) n() uint8 {
	return uint8(uint16(o) & 0x000F)
}

func (o Opcode) nn() uint8 {
	return uint8(uint16(o) & 0x00FF)
}

func (o Opcode) nnn() uint16 {
	return uint16(o) & 0x0FFF
}

func u16toh(i uint16, n int) string {
	return byteconv.Word(i, n)
}

func u8toh(i uint8, n int) string {
	return byteconv.Word(uint16(i), n)
}

func regX(op Opcode) string {
	return "V" + u8toh(op.x(), 1)
}

func regY(op Opcode) string {
	return "V" + u8toh(op.y(), 1)
}

// String returns the mnemonic form used in trace logs. Words that do not
// decode are shown as data.
func (op Opcode) String() string {
	var str string

	switch op.kind() {
	case 0x0:
		switch op.n() {
		case 0x0:
			str = "CLS"
		case 0xE:
			str = "RET"
		}
	case 0x1:
		str = "JP " + u16toh(op.nnn(), 3)
	case 0x2:
		str = "CALL " + u16toh(op.nnn(), 3)
	case 0x3:
		str = "SE " + regX(op) + ", " + u8toh(op.nn(), 2)
	case 0x4:
		str = "SNE " + regX(op) + ", " + u8toh(op.nn(), 2)
	case 0x5:
		str = "SE " + regX(op) + ", " + regY(op)
	case 0x6:
		str = "LD " + regX(op) + ", " + u8toh(op.nn(), 2)
	case 0x7:
		str = "ADD " + regX(op) + ", " + u8toh(op.nn(), 2)
	case 0x8:
		switch op.n() {
		case 0x0:
			str = "LD " + regX(op) + ", " + regY(op)
		case 0x1:
			str = "OR " + regX(op) + ", " + regY(op)
		case 0x2:
			str = "AND " + regX(op) + ", " + regY(op)
		case 0x3:
			str = "XOR " + regX(op) + ", " + regY(op)
		case 0x4:
			str = "ADD " + regX(op) + ", " + regY(op)
		case 0x5:
			str = "SUB " + regX(op) + ", " + regY(op)
		case 0x6:
			str = "SHR " + regX(op)
		case 0x7:
			str = "SUBN " + regX(op) + ", " + regY(op)
		case 0xE:
			str = "SHL " + regX(op)
		}
	case 0x9:
		str = "SNE " + regX(op) + ", " + regY(op)
	case 0xA:
		str = "LD I, " + u16toh(op.nnn(), 3)
	case 0xB:
		str = "JP V0, " + u16toh(op.nnn(), 3)
	case 0xC:
		str = "RND " + regX(op) + ", " + u8toh(op.nn(), 2)
	case 0xD:
		str = "DRW " + regX(op) + ", " + regY(op) + ", " + u8toh(op.n(), 1)
	case 0xE:
		switch op.nn() {
		case 0x9E:
			str = "SKP " + regX(op)
		case 0xA1:
			str = "SKNP " + regX(op)
		}
	case 0xF:
		switch op.nn() {
		case 0x07:
			str = "LD " + regX(op) + ", DT"
		case 0x0A:
			str = "LD " + regX(op) + ", K"
		case 0x15:
			str = "LD DT, " + regX(op)
		case 0x18:
			str = "BEEP " + regX(op)
		case 0x1E:
			str = "ADD I, " + regX(op)
		case 0x29:
			str = "LD F, " + regX(op)
		case 0x33:
			str = "LD B, " + regX(op)
		case 0x55:
			str = "LD [I], " + regX(op)
		case 0x65:
			str = "LD " + regX(op) + ", [I]"
		}
	}

	if str == "" {
		str = "DW " + u16toh(uint16(op), 4)
	}
	return str
}
