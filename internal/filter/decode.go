// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package filter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// decodeImageBytes decodes PNG/JPEG pixel bytes for perceptual hashing.
// No third-party image codec in the pack improves on the standard
// library here (see DESIGN.md), so this is the one place filter uses
// stdlib image decoding directly rather than a pack-sourced library.
func decodeImageBytes(b []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("filter: decode image: %w", err)
	}
	return img, format, nil
}
