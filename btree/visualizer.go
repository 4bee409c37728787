package btree

import (
	"strings"

	"github.com/fatih/color"
)

var (
	keyColor   = color.New(color.FgCyan, color.Bold)
	valColor   = color.New(color.FgYellow)
	frameColor = color.New(color.FgHiBlack)
)

// Visualizer draws a tree level by level, one line per depth and one bracketed
// group per node.
type Visualizer struct {
	Tree *Btree
}

// Visualize returns one line per level, or "(empty)" for an empty tree.
func (v *Visualizer) Visualize() string {
	if v.Tree == nil || v.Tree.Len() == 0 {
		return frameColor.Sprint("(empty)")
	}

	var sb strings.Builder
	current := 0
	v.Tree.WalkLevels(func(depth int, pairs []Pair) {
		if depth != current {
			sb.WriteByte('\n')
			current = depth
		} else if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(frameColor.Sprint("["))
		for _, p := range pairs {
			sb.WriteByte(' ')
			sb.WriteString(keyColor.Sprint(p.Key))
			sb.WriteByte(':')
			sb.WriteString(valColor.Sprint(p.Value))
		}
		sb.WriteString(frameColor.Sprint(" ]"))
	})
	return sb.String()
}
