package vision

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"cultivai/cropvision/croplabel"
)

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// decodeImage decodes JPEG, PNG or WebP bytes.
func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// toTensor scales img to size×size and lays it out as normalized NCHW float32.
func toTensor(img image.Image, size int) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := dst.PixOffset(x, y)
			px := dst.Pix[off : off+3]
			i := y*size + x
			for c := 0; c < 3; c++ {
				v := float32(px[c]) / 255
				out[c*plane+i] = (v - imagenetMean[c]) / imagenetStd[c]
			}
		}
	}
	return out
}

func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxV := logits[0]
	for _, v := range logits[1:] {
		if v > maxV {
			maxV = v
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxV))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// topK pairs probabilities with labels and keeps the k highest. Ties keep
// the model's output order.
func topK(probs []float32, labels []string, k int) []croplabel.Candidate {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	if k > 0 && len(idx) > k {
		idx = idx[:k]
	}
	out := make([]croplabel.Candidate, 0, len(idx))
	for _, i := range idx {
		label := fmt.Sprintf("class_%d", i)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		out = append(out, croplabel.Candidate{Description: label, Score: float64(probs[i])})
	}
	return out
}

// loadLabels reads one class label per line. ImageNet style synonym lists
// ("ear, spike, capitulum") keep only the first name.
func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan labels: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no labels in %s", path)
	}
	return out, nil
}
