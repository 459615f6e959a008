package gas

import (
	"context"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// StaticSource always answers with a fixed gwei value. It is the configurable
// last tier of a source list and always carries low confidence.
type StaticSource struct {
	name  string
	value float64
}

// NewStaticSource creates a fixed-value source.
func NewStaticSource(name string, value float64) *StaticSource {
	return &StaticSource{name: name, value: value}
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Confidence() domain.Confidence { return domain.ConfidenceLow }

func (s *StaticSource) Timeout() time.Duration { return time.Second }

func (s *StaticSource) Fetch(ctx context.Context, key string) (float64, error) {
	return s.value, nil
}
