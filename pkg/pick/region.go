package pick

import (
	"image"
	"sort"
)

// DefaultNoiseCap bounds the per-key pixel threshold of a region pick.
const DefaultNoiseCap = 4

// Sample is one key found in a picked region and how many pixels carried it.
type Sample struct {
	Color Color `json:"color"`
	Count int   `json:"count"`
}

// NoiseThreshold is the minimum pixel count for a key to survive a region
// pick: the smaller side of the region, capped at noiseCap.
func NoiseThreshold(w, h, noiseCap int) int {
	t := min(w, h)
	if noiseCap > 0 {
		t = min(t, noiseCap)
	}
	return max(t, 1)
}

// Tally counts the keys in rect of img and drops the background and every
// key seen on fewer pixels than the noise threshold. A single-pixel region
// keeps whatever it hit. Results are ordered by descending count, then key.
func Tally(img *image.RGBA, rect image.Rectangle, noiseCap int) []Sample {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil
	}

	counts := make(map[uint32]int)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := img.PixOffset(x, y)
			c := Color{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
			counts[c.Key()]++
		}
	}

	threshold := NoiseThreshold(rect.Dx(), rect.Dy(), noiseCap)
	var out []Sample
	for k, n := range counts {
		if k == Background || n < threshold {
			continue
		}
		out = append(out, Sample{Color: FromKey(k), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Color.Key() < out[j].Color.Key()
	})
	return out
}
