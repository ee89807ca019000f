// Package terminal presents a running engine on a text terminal: a tcell
// RenderSurface and a keyboard InputSource.
package terminal

import (
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
)

// Scene coordinate space, scaled to whatever the terminal offers.
const (
	SceneWidth  = ir.SceneWidth
	SceneHeight = ir.SceneHeight
)

var classStyle = map[ir.Class]struct {
	fill  rune
	style tcell.Style
}{
	ir.ClassRectangle: {'█', tcell.StyleDefault.Foreground(tcell.ColorWhite)},
	ir.ClassBitmap:    {'▓', tcell.StyleDefault.Foreground(tcell.ColorGreen)},
	ir.ClassText:      {' ', tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)},
	ir.ClassVideo:     {'░', tcell.StyleDefault.Foreground(tcell.ColorBlue)},
	ir.ClassStream:    {'░', tcell.StyleDefault.Foreground(tcell.ColorPurple)},
}

var _ engine.RenderSurface = (*Surface)(nil)

// Surface mirrors the DisplayStack on a tcell screen. Every stack change
// repaints the whole screen back to front.
//
// Painting reads visible content, so Redraw and RedrawArea must only be
// called from the engine loop goroutine.
type Surface struct {
	screen tcell.Screen

	mu    sync.Mutex
	stack []engine.Drawable
}

// NewSurface draws onto an initialised screen.
func NewSurface(screen tcell.Screen) *Surface {
	return &Surface{screen: screen}
}

// Stack returns the mirrored stack ids, back to front.
func (s *Surface) Stack() []ir.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]ir.ObjectID, len(s.stack))
	for i, d := range s.stack {
		ids[i] = d.ID()
	}
	return ids
}

func (s *Surface) index(v engine.Drawable) int {
	return slices.IndexFunc(s.stack, func(d engine.Drawable) bool { return d.ID() == v.ID() })
}

func (s *Surface) remove(v engine.Drawable) bool {
	i := s.index(v)
	if i < 0 {
		return false
	}
	s.stack = slices.Delete(s.stack, i, i+1)
	return true
}

func (s *Surface) AddVisible(v engine.Drawable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(v)
	s.stack = append(s.stack, v)
}

func (s *Surface) RemoveVisible(v engine.Drawable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(v)
}

func (s *Surface) BringToFront(v engine.Drawable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remove(v) {
		s.stack = append(s.stack, v)
	}
}

func (s *Surface) SendToBack(v engine.Drawable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remove(v) {
		s.stack = slices.Insert(s.stack, 0, v)
	}
}

func (s *Surface) PutBefore(v, ref engine.Drawable) {
	s.restack(v, ref, 1)
}

func (s *Surface) PutBehind(v, ref engine.Drawable) {
	s.restack(v, ref, 0)
}

func (s *Surface) restack(v, ref engine.Drawable, offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(ref) < 0 || !s.remove(v) {
		return
	}
	j := s.index(ref)
	s.stack = slices.Insert(s.stack, j+offset, v)
}

// RedrawArea repaints the screen. The area is ignored: terminal cells are
// coarse enough that a full repaint costs the same.
func (s *Surface) RedrawArea(ir.Point, ir.Size) {
	s.Redraw()
}

// Redraw paints every visible, back to front, and shows the result.
func (s *Surface) Redraw() {
	s.mu.Lock()
	stack := slices.Clone(s.stack)
	s.mu.Unlock()

	s.screen.Clear()
	w, h := s.screen.Size()
	for _, d := range stack {
		s.paint(d, w, h)
	}
	s.screen.Show()
}

func (s *Surface) paint(d engine.Drawable, w, h int) {
	look, ok := classStyle[d.Class()]
	if !ok {
		return
	}
	x0, y0, x1, y1 := cells(d, w, h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			s.screen.SetContent(x, y, look.fill, nil, look.style)
		}
	}
	if d.Class() == ir.ClassText {
		x, y := x0, y0
		for _, r := range string(d.Content()) {
			if r == '\n' {
				x, y = x0, y+1
				continue
			}
			if x >= x1 {
				x, y = x0, y+1
			}
			if y >= y1 {
				break
			}
			s.screen.SetContent(x, y, r, nil, look.style)
			x++
		}
	}
}

// cells maps a scene box onto the [x0,x1) by [y0,y1) cell range, clipped
// to the screen.
func cells(d engine.Drawable, w, h int) (x0, y0, x1, y1 int) {
	pos, size := d.Geometry()
	x0 = clamp(pos.X*w/SceneWidth, w)
	y0 = clamp(pos.Y*h/SceneHeight, h)
	x1 = clamp((pos.X+size.W)*w/SceneWidth, w)
	y1 = clamp((pos.Y+size.H)*h/SceneHeight, h)
	return x0, y0, x1, y1
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
