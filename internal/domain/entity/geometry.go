package entity

import "image"

// CropGeometry квадратная область кадра, поданная на вход модели
type CropGeometry struct {
	Side      int // сторона квадрата в пикселях кадра
	OffsetX   int // смещение квадрата по X
	OffsetY   int // смещение квадрата по Y
	SrcWidth  int // ширина исходного кадра
	SrcHeight int // высота исходного кадра
}

// Rect возвращает область квадрата в координатах кадра
func (g CropGeometry) Rect() image.Rectangle {
	return image.Rect(g.OffsetX, g.OffsetY, g.OffsetX+g.Side, g.OffsetY+g.Side)
}

// Center возвращает координаты центра квадрата
func (g CropGeometry) Center() (x, y int) {
	return g.OffsetX + g.Side/2, g.OffsetY + g.Side/2
}

// Valid проверяет, что квадрат лежит внутри кадра и максимален.
func (g CropGeometry) Valid() bool {
	if g.Side <= 0 || g.OffsetX < 0 || g.OffsetY < 0 {
		return false
	}
	return g.OffsetX+g.Side <= g.SrcWidth &&
		g.OffsetY+g.Side <= g.SrcHeight &&
		g.Side == min(g.SrcWidth, g.SrcHeight)
}
