package pointcloud

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// OrganizedCloud is a point cloud laid out on a fixed width × height grid,
// one optional point per cell. Each cell carries an explicit occupied flag,
// so a genuine point at the origin is distinguishable from an empty cell.
type OrganizedCloud struct {
	width, height int
	cells         []organizedCell
}

type organizedCell struct {
	point    r3.Vector
	occupied bool
}

// Width returns the number of grid columns.
func (oc *OrganizedCloud) Width() int {
	return oc.width
}

// Height returns the number of grid rows.
func (oc *OrganizedCloud) Height() int {
	return oc.height
}

// Size returns the total number of cells, width × height.
func (oc *OrganizedCloud) Size() int {
	return len(oc.cells)
}

// At returns the point stored at the given cell and whether the cell is
// occupied.
func (oc *OrganizedCloud) At(ix, iy int) (r3.Vector, bool) {
	if ix < 0 || ix >= oc.width || iy < 0 || iy >= oc.height {
		return r3.Vector{}, false
	}
	cell := oc.cells[iy*oc.width+ix]
	return cell.point, cell.occupied
}

// OccupiedCount returns the number of occupied cells.
func (oc *OrganizedCloud) OccupiedCount() int {
	count := 0
	for _, cell := range oc.cells {
		if cell.occupied {
			count++
		}
	}
	return count
}

// Organize rasterizes an unordered cloud onto a grid of
// width·resolution × height·resolution cells centered on the origin. Each
// point lands in the cell at round(x·resolution)+offsetX,
// round(y·resolution)+offsetY; points mapping outside the grid are dropped.
// When multiple points land in the same cell the one with the greatest z
// wins, preserving the topmost surface seen from above.
func Organize(cloud PointCloud, resolution float64, width, height int) (*OrganizedCloud, error) {
	if resolution <= 0 || width <= 0 || height <= 0 {
		return nil, errors.Errorf("resolution, width and height must be positive, got %v, %d, %d", resolution, width, height)
	}

	gridWidth := int(math.Round(float64(width) * resolution))
	gridHeight := int(math.Round(float64(height) * resolution))
	organized := &OrganizedCloud{
		width:  gridWidth,
		height: gridHeight,
		cells:  make([]organizedCell, gridWidth*gridHeight),
	}

	offsetX := int(math.Round(float64(gridWidth) / 2.))
	offsetY := int(math.Round(float64(gridHeight) / 2.))
	cloud.Iterate(func(p r3.Vector) bool {
		ix := int(math.Round(p.X*resolution)) + offsetX
		iy := int(math.Round(p.Y*resolution)) + offsetY
		if ix < 0 || ix >= gridWidth || iy < 0 || iy >= gridHeight {
			return true
		}
		cell := &organized.cells[iy*gridWidth+ix]
		if !cell.occupied || p.Z > cell.point.Z {
			cell.point = p
			cell.occupied = true
		}
		return true
	})
	return organized, nil
}

const occupiedValue = 255

// ToOccupancyImage converts the organized cloud to a binary grayscale image,
// occupied cells white. An empty grid cannot be converted and is reported as
// an error.
func (oc *OrganizedCloud) ToOccupancyImage() (*image.Gray, error) {
	if oc == nil || oc.width == 0 || oc.height == 0 {
		return nil, errors.New("cannot convert an empty organized cloud")
	}
	if oc.OccupiedCount() == 0 {
		return nil, errors.New("organized cloud has no occupied cells")
	}

	img := image.NewGray(image.Rect(0, 0, oc.width, oc.height))
	for iy := 0; iy < oc.height; iy++ {
		for ix := 0; ix < oc.width; ix++ {
			if oc.cells[iy*oc.width+ix].occupied {
				img.SetGray(ix, iy, color.Gray{Y: occupiedValue})
			}
		}
	}
	return img, nil
}
