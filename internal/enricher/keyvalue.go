/**
 * Key-value pair extraction: lines of the shape "Label: value" or
 * "Label - value" become KeyValuePair entries independent of the
 * smart-field and notable-data passes.
 */

package enricher

import (
	"regexp"
	"strings"

	"github.com/adverant/ocrservice/internal/model"
)

// colonPairRE and dashPairRE are §4.4's two key-value line shapes.
var (
	colonPairRE = regexp.MustCompile(`^([^:]+):\s*(.+)$`)
	dashPairRE  = regexp.MustCompile(`^([^-]+)\s*-\s*(.+)$`)
)

const (
	maxKeyLen   = 50
	maxValueLen = 200
)

// ExtractKeyValuePairs scans every line of every block for label/value
// pairs, trying the colon shape before the dash shape.
func ExtractKeyValuePairs(blocks []model.Block) []model.KeyValuePair {
	var pairs []model.KeyValuePair

	for bi, block := range blocks {
		for _, para := range block.Paragraphs {
			for _, line := range para.Lines {
				text := strings.TrimSpace(line.Text)
				if text == "" {
					continue
				}

				m := colonPairRE.FindStringSubmatch(text)
				if m == nil {
					m = dashPairRE.FindStringSubmatch(text)
				}
				if m == nil {
					continue
				}

				key := strings.TrimSpace(m[1])
				value := strings.TrimSpace(m[2])
				if key == "" || value == "" || len(key) >= maxKeyLen || len(value) >= maxValueLen {
					continue
				}

				keyBox, valueBox := splitLineBoundingBox(line)

				pairs = append(pairs, model.KeyValuePair{
					Key:              key,
					Value:            value,
					Confidence:       line.Confidence,
					SourceBlock:      bi,
					KeyBoundingBox:   keyBox,
					ValueBoundingBox: valueBox,
				})
			}
		}
	}

	return pairs
}

// splitLineBoundingBox approximates the key/value bounding boxes as the
// union of the first 40% and last 60% of the line's words, per §4.4,
// since the regex match offsets don't map cleanly back onto individual
// word boxes.
func splitLineBoundingBox(line model.Line) (model.BoundingBox, model.BoundingBox) {
	if len(line.Words) == 0 {
		return model.BoundingBox{}, model.BoundingBox{}
	}

	split := int(float64(len(line.Words)) * 0.4)
	if split < 1 {
		split = 1
	}
	if split >= len(line.Words) {
		split = len(line.Words) - 1
	}

	return unionWordBoxes(line.Words[:split]), unionWordBoxes(line.Words[split:])
}

func unionWordBoxes(words []model.Word) model.BoundingBox {
	if len(words) == 0 {
		return model.BoundingBox{}
	}
	box := words[0].BoundingBox
	for _, w := range words[1:] {
		if w.BoundingBox.X0 < box.X0 {
			box.X0 = w.BoundingBox.X0
		}
		if w.BoundingBox.Y0 < box.Y0 {
			box.Y0 = w.BoundingBox.Y0
		}
		if w.BoundingBox.X1 > box.X1 {
			box.X1 = w.BoundingBox.X1
		}
		if w.BoundingBox.Y1 > box.Y1 {
			box.Y1 = w.BoundingBox.Y1
		}
	}
	box.Width = box.X1 - box.X0
	box.Height = box.Y1 - box.Y0
	return box
}
