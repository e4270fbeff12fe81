// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/relabs-tech/iio_attitude/internal/config"
)

// Framebuffer describes a 32bpp BGRA framebuffer device.
type Framebuffer struct {
	Path   string
	Width  int
	Height int
	Stride int // bytes per row
}

// FramebufferFromConfig returns the configured framebuffer geometry.
func FramebufferFromConfig(cfg *config.Config) Framebuffer {
	return Framebuffer{Path: cfg.FBDevice, Width: cfg.FBWidth, Height: cfg.FBHeight, Stride: cfg.FBStride}
}

// Size is the byte length of one full frame.
func (fb Framebuffer) Size() int { return fb.Stride * fb.Height }

// Frame scales img to the framebuffer size and converts it to BGRA rows
// of Stride bytes.
func (fb Framebuffer) Frame(img image.Image) []byte {
	rgba := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, img.Bounds(), draw.Src, nil)

	frame := make([]byte, fb.Size())
	for y := 0; y < fb.Height; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+fb.Width*4]
		dst := frame[y*fb.Stride:]
		for x := 0; x < fb.Width; x++ {
			p := src[x*4 : x*4+4]
			d := dst[x*4 : x*4+4]
			d[0], d[1], d[2], d[3] = p[2], p[1], p[0], p[3]
		}
	}
	return frame
}

// Write copies frame to the start of the device.
func (fb Framebuffer) Write(frame []byte) error {
	f, err := os.OpenFile(fb.Path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open framebuffer: %w", err)
	}
	if _, err := f.WriteAt(frame, 0); err != nil {
		f.Close()
		return fmt.Errorf("write framebuffer: %w", err)
	}
	return f.Close()
}

// Clear fills the framebuffer with zeros.
func (fb Framebuffer) Clear() error {
	return fb.Write(make([]byte, fb.Size()))
}

// ShowImage decodes a PNG, JPEG or BMP file and writes it to the framebuffer.
func (fb Framebuffer) ShowImage(path string, logger *zap.SugaredLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	logger.Infow("image decoded", "format", format, "size", img.Bounds().Size(), "device", fb.Path)
	return fb.Write(fb.Frame(img))
}
