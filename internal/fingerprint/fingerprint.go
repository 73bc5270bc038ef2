// Package fingerprint computes perceptual hashes of images.
//
// Three algorithms are provided, all producing 64-bit strings: the average
// hash (8x8 luminance against its mean), the difference hash (9x8 horizontal
// gradients) and the perceptual hash (low DCT frequencies of a 32x32
// thumbnail against their median).
package fingerprint

import (
	"image"
	"sync"
)

// Fingerprint holds the three hashes of one image.
type Fingerprint struct {
	AHash Hash `json:"ahash"`
	DHash Hash `json:"dhash"`
	PHash Hash `json:"phash"`
}

// Compute decodes an encoded image once and computes all three hashes.
func Compute(data []byte) (*Fingerprint, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage computes all three hashes of a decoded image.
// The hashes are independent, so each runs in its own goroutine.
func FromImage(img image.Image) *Fingerprint {
	var fp Fingerprint
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		fp.AHash = averageHash(img)
	}()
	go func() {
		defer wg.Done()
		fp.DHash = differenceHash(img)
	}()
	go func() {
		defer wg.Done()
		fp.PHash = perceptualHash(img)
	}()
	wg.Wait()
	return &fp
}
