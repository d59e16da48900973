package join

import (
	"github.com/windlass-io/windlass/pkg/stream"
)

// Left returns a pipeline stage feeding the left side of the join
func (j *StreamJoin) Left() stream.Stage {
	return leftStage{j}
}

// Right returns a pipeline stage feeding the right side of the join
func (j *StreamJoin) Right() stream.Stage {
	return rightStage{j}
}

type leftStage struct{ j *StreamJoin }

func (s leftStage) Process(event *stream.Event) []*stream.Event {
	return s.j.ProcessLeft(event)
}

type rightStage struct{ j *StreamJoin }

func (s rightStage) Process(event *stream.Event) []*stream.Event {
	return s.j.ProcessRight(event)
}
