package testutil

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// FakeProcessor is a configurable processor for builder tests. Without Fn it
// copies the source to "<stem>.out" in the output folder.
type FakeProcessor struct {
	Details processor.Details
	Fn      func(ctx context.Context, pc *processor.Context) error

	calls atomic.Int32
	mu    sync.Mutex
	seen  []string
}

// NewFakeProcessor returns a copying fake registered under name.
func NewFakeProcessor(name string) *FakeProcessor {
	return &FakeProcessor{Details: processor.Details{Name: name}}
}

// Describe implements processor.Processor.
func (f *FakeProcessor) Describe() processor.Details { return f.Details }

// Process implements processor.Processor.
func (f *FakeProcessor) Process(ctx context.Context, pc *processor.Context) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, pc.Asset.Path)
	f.mu.Unlock()

	if f.Fn != nil {
		return f.Fn(ctx, pc)
	}
	return CopyToOut(ctx, pc)
}

// Calls returns how many times Process ran.
func (f *FakeProcessor) Calls() int { return int(f.calls.Load()) }

// Seen returns the asset paths processed, in call order.
func (f *FakeProcessor) Seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

// Register implements registry.Module.
func (f *FakeProcessor) Register(r *registry.Registry) {
	r.RegisterProcessor(f)
}

// CopyToOut copies the asset source to "<stem>.out".
func CopyToOut(_ context.Context, pc *processor.Context) error {
	data, err := os.ReadFile(pc.SourcePath())
	if err != nil {
		return err
	}
	return pc.WriteOutput(pc.Stem()+".out", data)
}

// ConcurrencyProbe measures how many Process calls overlap. Use its Process
// method as a FakeProcessor.Fn.
type ConcurrencyProbe struct {
	Sleep time.Duration

	mu      sync.Mutex
	current int
	max     int
}

// Process records the overlap, sleeps and then copies the source.
func (p *ConcurrencyProbe) Process(ctx context.Context, pc *processor.Context) error {
	p.mu.Lock()
	p.current++
	if p.current > p.max {
		p.max = p.current
	}
	p.mu.Unlock()

	time.Sleep(p.Sleep)

	p.mu.Lock()
	p.current--
	p.mu.Unlock()
	return CopyToOut(ctx, pc)
}

// Max returns the highest number of overlapping calls observed.
func (p *ConcurrencyProbe) Max() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.max
}
