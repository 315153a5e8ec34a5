package engine

import (
	"testing"

	"github.com/meikuraledutech/graphplan"
	"github.com/stretchr/testify/assert"
)

func TestPickHandles(t *testing.T) {
	at := func(x, y float64) *graphplan.Node {
		return &graphplan.Node{Position: graphplan.Position{X: x, Y: y}, Width: 100, Height: 50}
	}
	origin := at(0, 0)

	tests := []struct {
		name       string
		src, tgt   *graphplan.Node
		wantSource string
		wantTarget string
	}{
		{"target below", origin, at(10, 300), HandleBottomSource, HandleTopTarget},
		{"target above", origin, at(10, -300), HandleTopSource, HandleBottomTarget},
		{"target right", origin, at(300, 10), HandleRightSource, HandleLeftTarget},
		{"target left", origin, at(-300, 10), HandleLeftSource, HandleRightTarget},
		{"same spot", origin, at(0, 0), HandleBottomSource, HandleTopTarget},
		{"unknown source", nil, origin, HandleBottomSource, HandleTopTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, g := pickHandles(tt.src, tt.tgt)
			assert.Equal(t, tt.wantSource, s)
			assert.Equal(t, tt.wantTarget, g)
		})
	}
}
