package presentation

import (
	"fmt"
	"io"
	"sync"

	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/pkg/tm128"
)

// ConsoleMap is a MapSDK that prints to a writer. It converts TM128 grid
// points with the tm128 package.
type ConsoleMap struct {
	mu     sync.Mutex
	w      io.Writer
	next   int
	active map[int]string
}

func NewConsoleMap(w io.Writer) *ConsoleMap {
	return &ConsoleMap{w: w, active: make(map[int]string)}
}

func (m *ConsoleMap) TransformPlanarToGeodetic(p domain.PlanarPoint) (domain.Coordinate, error) {
	return tm128.ToGeodetic(p), nil
}

func (m *ConsoleMap) CreateMarker(at domain.Coordinate, title string) (Marker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	id := m.next
	if _, err := fmt.Fprintf(m.w, "[%d] %s  (%.6f, %.6f)\n", id, title, at.Lat, at.Lng); err != nil {
		return nil, err
	}
	m.active[id] = title
	return &consoleMarker{m: m, id: id}, nil
}

func (m *ConsoleMap) SetCenter(at domain.Coordinate) error {
	_, err := fmt.Fprintf(m.w, "center: %.6f, %.6f\n", at.Lat, at.Lng)
	return err
}

// Markers returns the number of markers currently on the map.
func (m *ConsoleMap) Markers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

type consoleMarker struct {
	m  *ConsoleMap
	id int
}

func (c *consoleMarker) Remove() {
	c.m.mu.Lock()
	delete(c.m.active, c.id)
	c.m.mu.Unlock()
}
