package order

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Sequence hands out a strictly increasing counter shared by all instances.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// NumberGenerator builds order numbers of the form ORD<unix millis><sequence>.
type NumberGenerator struct {
	seq Sequence
	now func() time.Time
}

func NewNumberGenerator(seq Sequence) *NumberGenerator {
	return &NumberGenerator{seq: seq, now: time.Now}
}

func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	n, err := g.seq.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return fmt.Sprintf("ORD%d%d", g.now().UnixMilli(), n), nil
}

// CounterSequence is an in-process Sequence.
type CounterSequence struct {
	n atomic.Int64
}

func (s *CounterSequence) Next(context.Context) (int64, error) {
	return s.n.Add(1), nil
}
