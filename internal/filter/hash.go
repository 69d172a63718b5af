// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"math/bits"

	"github.com/swiss-ai/mm-ingest/pkg/schema"
)

// Hasher reduces a sample's content to a string key the dedup store can
// index on. It must be deterministic and collision-resistant enough for
// the chosen duplicate definition: byte-identical (Sha256Hash) or
// visually-similar (AverageHash).
type Hasher func(s schema.Sample) (string, error)

// Sha256Hash hashes text bytes and/or raw image bytes together,
// producing a hasher for exact byte-for-byte duplicates.
func Sha256Hash(s schema.Sample) (string, error) {
	h := sha256.New()
	if s.Text != nil {
		h.Write([]byte(s.Text.Text))
	}
	if s.Image != nil {
		h.Write(s.Image.Pixels)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// AverageHash computes a perceptual "aHash" of an image sample: shrink
// to 8x8 grayscale, threshold each pixel against the mean, and pack the
// 64 bits into a hex string. Near-duplicate images (recompressed,
// slightly cropped) hash to the same or a very close value; unlike
// Sha256Hash this tolerates encoding differences. Text-only samples
// fall back to Sha256Hash since there is no image to perceptually hash.
func AverageHash(s schema.Sample) (string, error) {
	if s.Image == nil {
		return Sha256Hash(s)
	}

	img, _, err := decodeImage(s.Image)
	if err != nil {
		return "", err
	}

	const side = 8
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	gray := make([]uint8, side*side)
	var sum int
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			sx := bounds.Min.X + x*w/side
			sy := bounds.Min.Y + y*h/side
			r, g, b, _ := img.At(sx, sy).RGBA()
			lum := uint8((r*299 + g*587 + b*114) / 1000 >> 8)
			gray[y*side+x] = lum
			sum += int(lum)
		}
	}
	mean := uint8(sum / (side * side))

	var bitsVal uint64
	for i, v := range gray {
		if v >= mean {
			bitsVal |= 1 << uint(i)
		}
	}

	return hex.EncodeToString(uint64ToBytes(bitsVal)), nil
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
	return b
}

// HammingDistance counts differing bits between two 64-bit aHash values,
// exposed for tests and for a future near-duplicate (not just exact)
// dedup threshold.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

func decodeImage(p *schema.ImagePayload) (image.Image, string, error) {
	return decodeImageBytes(p.Pixels)
}
