package hyper

// Package hyper holds the tunable parameters of the segmentation pipeline.
// Parameters can be overridden from the command line in "k1=v1,k2=v2" form.

import (
	"fmt"
	"strconv"
	"strings"
)

// TotalClasses is the number of semantic classes in the competition schema.
const TotalClasses = 10

// Params are the hyperparameters that survive from training into the
// submission pipeline. Classes are zero-based indices; the mask produced by
// the model has one channel per entry, in this order.
type Params struct {
	Classes []int
}

// Create a default Params object (all classes, in order)
func NewParams() *Params {
	p := &Params{}
	for i := 0; i < TotalClasses; i++ {
		p.Classes = append(p.Classes, i)
	}
	return p
}

// Update applies overrides in "k1=v1,k2=v2" format. The value for "classes"
// is a dash-separated list of zero-based indices (eg "classes=0-1-4").
// An empty string is a no-op.
func (p *Params) Update(overrides string) error {
	if overrides == "" {
		return nil
	}
	for _, pair := range strings.Split(overrides, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid hyperparameter override '%v' (want k=v)", pair)
		}
		switch k {
		case "classes":
			classes, err := parseClassList(v)
			if err != nil {
				return err
			}
			p.Classes = classes
		default:
			return fmt.Errorf("unknown hyperparameter '%v'", k)
		}
	}
	return nil
}

func parseClassList(v string) ([]int, error) {
	classes := []int{}
	for _, s := range strings.Split(v, "-") {
		cls, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid class index '%v': %w", s, err)
		}
		if cls < 0 || cls >= TotalClasses {
			return nil, fmt.Errorf("class index %v out of range [0, %v)", cls, TotalClasses)
		}
		classes = append(classes, cls)
	}
	return classes, nil
}
