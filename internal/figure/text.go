package figure

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// glyphHeight is the cell height of basicfont.Face7x13.
const glyphHeight = 13

// TextSize returns the pixel size of text rendered at the given scale.
func TextSize(text string, scale float64) (int, int) {
	if scale <= 0 {
		scale = 1
	}
	w := font.MeasureString(basicfont.Face7x13, text).Ceil()
	return int(float64(w) * scale), int(float64(glyphHeight) * scale)
}

// textMask renders text at the native glyph size and scales it up. The
// returned image is opaque where the glyphs are and transparent elsewhere.
func textMask(text string, scale float64) *image.RGBA {
	if scale <= 0 {
		scale = 1
	}
	w := font.MeasureString(basicfont.Face7x13, text).Ceil()
	if w == 0 {
		return nil
	}

	base := image.NewRGBA(image.Rect(0, 0, w, glyphHeight))
	d := &font.Drawer{
		Dst:  base,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{Y: fixed.I(basicfont.Face7x13.Ascent)},
	}
	d.DrawString(text)

	sw, sh := TextSize(text, scale)
	if sw == w && sh == glyphHeight {
		return base
	}
	scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), base, base.Bounds(), draw.Over, nil)
	return scaled
}

// DrawText draws text with its top-left corner at (x, y).
func DrawText(dst draw.Image, x, y int, text string, scale float64, c color.Color) {
	mask := textMask(text, scale)
	if mask == nil {
		return
	}
	r := mask.Bounds().Add(image.Pt(x, y))
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// DrawTextCentered draws text horizontally centred on cx with its top at y.
func DrawTextCentered(dst draw.Image, cx, y int, text string, scale float64, c color.Color) {
	w, _ := TextSize(text, scale)
	DrawText(dst, cx-w/2, y, text, scale, c)
}

// DrawOutlinedText draws text in fg over a round outline of the given
// thickness in bg, so it stays readable on any background.
func DrawOutlinedText(dst draw.Image, x, y int, text string, scale float64, fg, bg color.Color, thickness int) {
	mask := textMask(text, scale)
	if mask == nil {
		return
	}
	src := image.NewUniform(bg)
	for dx := -thickness; dx <= thickness; dx++ {
		for dy := -thickness; dy <= thickness; dy++ {
			if dx*dx+dy*dy > thickness*thickness {
				continue
			}
			r := mask.Bounds().Add(image.Pt(x+dx, y+dy))
			draw.DrawMask(dst, r, src, image.Point{}, mask, image.Point{}, draw.Over)
		}
	}
	DrawText(dst, x, y, text, scale, fg)
}
