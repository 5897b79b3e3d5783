package zone

import (
	"fmt"

	"github.com/cogoffice/battlezone/engine/level"
)

// LogicCounter outputs
const (
	OutputHitMin  = "OnHitMin"
	OutputLoseMin = "OnLoseMin"
	OutputHitMax  = "OnHitMax"
	OutputLoseMax = "OnLoseMax"
)

// LogicCounter counts between a min and a max value and fires outputs when it reaches or leaves either end
type LogicCounter struct {
	Name   string
	value  int
	min    int
	max    int
	output func(output string, value int)
}

// NewLogicCounter creates a counter. output may be nil.
func NewLogicCounter(name string, start, min, max int, output func(output string, value int)) *LogicCounter {
	if max < min {
		min, max = max, min
	}
	if start < min {
		start = min
	} else if start > max {
		start = max
	}
	return &LogicCounter{Name: name, value: start, min: min, max: max, output: output}
}

// LogicCounterFromLevel creates a counter from a logic_counter level entity
func LogicCounterFromLevel(e *level.Entity, output func(output string, value int)) *LogicCounter {
	return NewLogicCounter(e.Targetname, e.ValueInt("startValue"), e.ValueInt("minValue"), e.ValueInt("maxValue"), output)
}

func (c *LogicCounter) String() string {
	return fmt.Sprintf("LogicCounter<%s|%d in [%d,%d]>", c.Name, c.value, c.min, c.max)
}

// Value returns the current value
func (c *LogicCounter) Value() int {
	return c.value
}

func (c *LogicCounter) fire(output string) {
	if c.output != nil {
		c.output(output, c.value)
	}
}

// CountUp adds one. Counting up at the max does nothing.
func (c *LogicCounter) CountUp() {
	if c.value >= c.max {
		return
	}
	wasMin := c.value == c.min
	c.value++
	if wasMin {
		c.fire(OutputLoseMin)
	}
	if c.value == c.max {
		c.fire(OutputHitMax)
	}
}

// CountDown subtracts one. Counting down at the min does nothing.
func (c *LogicCounter) CountDown() {
	if c.value <= c.min {
		return
	}
	wasMax := c.value == c.max
	c.value--
	if wasMax {
		c.fire(OutputLoseMax)
	}
	if c.value == c.min {
		c.fire(OutputHitMin)
	}
}
