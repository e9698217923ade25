package chip8

// Point is a set pixel of the display buffer.
type Point struct {
	Row, Col int
}

func (p *Processor) clearDisplay() {
	clear(p.display[:])
}

// DrawSprite XORs an 8 pixel wide sprite of h rows, read from memory at I,
// onto the display at (x mod 64, y mod 32). Rows and columns past the edge
// are clipped. VF is set when a set pixel is turned off.
func (p *Processor) DrawSprite(x, y, h byte) {
	startX := int(x) % Width
	startY := int(y) % Height

	p.v[CarryFlag] = 0 // Reset the collision register.

	for row := range int(h) {
		if startY+row >= Height {
			// Reached the bottom of the display.
			break
		}

		sprite := p.load(p.i + uint16(row))

		for col := range 8 {
			if startX+col >= Width {
				break
			}

			if (sprite & (0x80 >> col)) != 0 {
				index := (startX + col) + (startY+row)*Width

				if p.display[index] == 1 {
					// Pixel was already on. This indicates a graphical object collision.
					p.v[CarryFlag] = 1
				}
				p.display[index] ^= 1
			}
		}
	}
}

// Display returns the row-major pixel buffer. Callers must not modify it.
func (p *Processor) Display() []byte {
	return p.display[:]
}

// Pixel reports whether the pixel at row, col is set.
func (p *Processor) Pixel(row, col int) bool {
	return p.display[row*Width+col] == 1
}

// Pixels lists the set pixels in row-major order.
func (p *Processor) Pixels() []Point {
	var pts []Point
	for i, val := range p.display {
		if val == 1 {
			pts = append(pts, Point{Row: i / Width, Col: i % Width})
		}
	}
	return pts
}
