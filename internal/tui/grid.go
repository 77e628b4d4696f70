package tui

import (
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// The node grid is a fiction. It subscribes to the coarse pipeline stage
// (idle or busy) and animates on its own timer; no cell corresponds to any
// real unit of work.

type nodeKind int

const (
	nodeLogic nodeKind = iota
	nodeCreative
	nodeConsciousness
	nodeNarrator
	nodeSentinel
	nodeArchivist
)

var nodeKinds = []nodeKind{
	nodeLogic, nodeLogic, nodeLogic, nodeLogic,
	nodeCreative, nodeCreative, nodeCreative,
	nodeConsciousness, nodeConsciousness,
	nodeNarrator, nodeNarrator,
	nodeSentinel,
	nodeArchivist,
}

type gridNode struct {
	kind nodeKind
	load int // 0-100, purely cosmetic
}

type nodeGrid struct {
	nodes []gridNode
	rng   *rand.Rand
}

func newNodeGrid(seed int64) *nodeGrid {
	grid := &nodeGrid{rng: rand.New(rand.NewSource(seed))}
	grid.nodes = make([]gridNode, len(nodeKinds))
	for i, kind := range nodeKinds {
		grid.nodes[i] = gridNode{kind: kind, load: grid.rng.Intn(12)}
	}
	return grid
}

// tick advances the animation one frame. Busy conversations push loads up,
// idle ones let them decay.
func (g *nodeGrid) tick(busy bool) {
	for i := range g.nodes {
		node := &g.nodes[i]
		if busy {
			node.load += g.rng.Intn(25)
			if node.load > 100 {
				node.load = 35 + g.rng.Intn(30)
			}
			continue
		}
		node.load -= g.rng.Intn(15)
		if node.load < 0 {
			node.load = g.rng.Intn(8)
		}
	}
}

func (g *nodeGrid) render() string {
	cells := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		cells = append(cells, nodeStyle(node).Render(nodeGlyph(node)))
	}
	var rows []string
	for len(cells) > 0 {
		width := 7
		if len(cells) < width {
			width = len(cells)
		}
		rows = append(rows, strings.Join(cells[:width], " "))
		cells = cells[width:]
	}
	return strings.Join(rows, "\n")
}

func nodeGlyph(node gridNode) string {
	switch {
	case node.load > 75:
		return "◉"
	case node.load > 40:
		return "◎"
	case node.load > 10:
		return "○"
	default:
		return "·"
	}
}

func nodeStyle(node gridNode) lipgloss.Style {
	switch node.kind {
	case nodeCreative:
		return gridCreativeStyle
	case nodeConsciousness:
		return gridConsciousnessStyle
	case nodeNarrator:
		return gridNarratorStyle
	case nodeSentinel:
		return gridSentinelStyle
	case nodeArchivist:
		return gridArchivistStyle
	default:
		return gridLogicStyle
	}
}
