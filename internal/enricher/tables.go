/**
 * Table detection via line-spacing regularity and x-coordinate column
 * clustering, per spec §4.4.
 */

package enricher

import (
	"math"
	"sort"
	"strings"

	"github.com/adverant/ocrservice/internal/model"
)

// minTableLines is the minimum number of lines a paragraph must have
// before it is even considered for table-candidacy.
const minTableLines = 2

// columnClusterGrid is the px grid §4.4 rounds word x-starts to before
// clustering them into columns.
const columnClusterGrid = 10

// cellMembershipRadius is the px window around a column centroid within
// which a word is considered part of that column's cell.
const cellMembershipRadius = 20

// headerCellMaxLen is the length below which a cell counts as
// header-like even if it isn't all-caps.
const headerCellMaxLen = 20

// DetectTables scans each block's paragraphs for evenly-spaced rows
// whose words cluster into consistent x-coordinate columns, and emits a
// Table per matching region.
func DetectTables(blocks []model.Block) []model.Table {
	var tables []model.Table

	for _, block := range blocks {
		for _, para := range block.Paragraphs {
			if len(para.Lines) < minTableLines {
				continue
			}
			if !hasRegularSpacing(para.Lines) {
				continue
			}

			columns := clusterColumns(para.Lines)
			if len(columns) < 2 {
				continue
			}

			table := buildTable(para.Lines, columns, block.Page)
			tables = append(tables, table)
		}
	}

	return tables
}

// hasRegularSpacing computes the mean absolute deviation (MAD) of
// consecutive line gaps and accepts the region as tabular when the MAD
// is small relative to the mean gap (< 30%) — i.e. rows are evenly
// spaced, the hallmark of a grid rather than flowing prose.
func hasRegularSpacing(lines []model.Line) bool {
	if len(lines) < minTableLines {
		return false
	}

	gaps := make([]float64, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		gap := lines[i].BoundingBox.Y0 - lines[i-1].BoundingBox.Y1
		if gap < 0 {
			gap = 0
		}
		gaps = append(gaps, gap)
	}

	mean := meanFloat(gaps)
	if mean <= 0 {
		return false
	}

	mad := 0.0
	for _, g := range gaps {
		mad += math.Abs(g - mean)
	}
	mad /= float64(len(gaps))

	return mad/mean < 0.30
}

// clusterColumns rounds every word's start-x to the nearest 10px grid
// line and returns the distinct grid positions found, in ascending
// order, per §4.4.
func clusterColumns(lines []model.Line) []float64 {
	seen := map[int]bool{}
	for _, line := range lines {
		for _, w := range line.Words {
			grid := int(math.Round(w.BoundingBox.X0/columnClusterGrid)) * columnClusterGrid
			seen[grid] = true
		}
	}

	columns := make([]float64, 0, len(seen))
	for g := range seen {
		columns = append(columns, float64(g))
	}
	sort.Float64s(columns)
	return columns
}

func buildTable(lines []model.Line, columns []float64, page int) model.Table {
	table := model.Table{
		Rows:    len(lines),
		Columns: len(columns),
		Page:    page,
	}

	for rowIdx, line := range lines {
		cellText := make([]string, len(columns))
		cellBox := make([]model.BoundingBox, len(columns))
		cellSet := make([]bool, len(columns))

		for _, w := range line.Words {
			col := nearestColumn(w.BoundingBox.X0, columns)
			if math.Abs(w.BoundingBox.X0-columns[col]) > cellMembershipRadius {
				continue
			}
			if cellText[col] != "" {
				cellText[col] += " "
			}
			cellText[col] += w.Text
			cellBox[col] = unionBox(cellBox[col], w.BoundingBox, !cellSet[col])
			cellSet[col] = true
		}

		for col := range columns {
			table.Cells = append(table.Cells, model.TableCell{
				Text:        cellText[col],
				Row:         rowIdx,
				Column:      col,
				BoundingBox: cellBox[col],
			})
		}
	}

	if len(lines) > 0 {
		table.BoundingBox = unionLineBoxes(lines)
	}
	table.HasHeader = isHeaderRow(table.Cells, len(columns))

	return table
}

// isHeaderRow treats row 0 as a header iff every one of its cells is
// either all-caps or shorter than headerCellMaxLen chars.
func isHeaderRow(cells []model.TableCell, numColumns int) bool {
	if numColumns == 0 {
		return false
	}
	found := 0
	for _, c := range cells {
		if c.Row != 0 {
			continue
		}
		found++
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		if text == strings.ToUpper(text) || len(text) < headerCellMaxLen {
			continue
		}
		return false
	}
	return found > 0
}

func nearestColumn(x float64, columns []float64) int {
	best := 0
	bestDist := math.Abs(x - columns[0])
	for i, c := range columns[1:] {
		d := math.Abs(x - c)
		if d < bestDist {
			bestDist = d
			best = i + 1
		}
	}
	return best
}

func unionBox(box, next model.BoundingBox, first bool) model.BoundingBox {
	if first {
		box = next
	} else {
		if next.X0 < box.X0 {
			box.X0 = next.X0
		}
		if next.Y0 < box.Y0 {
			box.Y0 = next.Y0
		}
		if next.X1 > box.X1 {
			box.X1 = next.X1
		}
		if next.Y1 > box.Y1 {
			box.Y1 = next.Y1
		}
	}
	box.Width = box.X1 - box.X0
	box.Height = box.Y1 - box.Y0
	return box
}

func unionLineBoxes(lines []model.Line) model.BoundingBox {
	box := lines[0].BoundingBox
	for _, l := range lines[1:] {
		if l.BoundingBox.X0 < box.X0 {
			box.X0 = l.BoundingBox.X0
		}
		if l.BoundingBox.Y0 < box.Y0 {
			box.Y0 = l.BoundingBox.Y0
		}
		if l.BoundingBox.X1 > box.X1 {
			box.X1 = l.BoundingBox.X1
		}
		if l.BoundingBox.Y1 > box.Y1 {
			box.Y1 = l.BoundingBox.Y1
		}
	}
	box.Width = box.X1 - box.X0
	box.Height = box.Y1 - box.Y0
	return box
}

func meanFloat(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
