//go:build headless

package audioout

import (
	"io"
	"sync"
	"time"
)

// Player is the silent twin used on machines without an audio device. It pulls
// the renderer at the real-time rate and discards the samples.
type Player struct {
	r          *Renderer
	sampleRate int
	stop       chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// NewPlayer returns a player that renders without a device.
func NewPlayer(r *Renderer, sampleRate int, _ time.Duration) (*Player, error) {
	return &Player{r: r, sampleRate: sampleRate}, nil
}

// Start begins pulling blocks.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.wg.Add(1)
	go p.run(p.stop)
}

func (p *Player) run(stop chan struct{}) {
	defer p.wg.Done()
	block := p.r.blockSize
	buf := make([]byte, block*Channels*bytesPerSample)
	tick := time.NewTicker(time.Duration(block) * time.Second / time.Duration(p.sampleRate))
	defer tick.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			_, _ = io.ReadFull(p.r, buf)
		}
	}
}

// Stop halts the pull loop.
func (p *Player) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()
	if stop != nil {
		close(stop)
		p.wg.Wait()
	}
}

// Close stops the player.
func (p *Player) Close() error {
	p.Stop()
	return nil
}

// IsStarted reports whether the pull loop is running.
func (p *Player) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}
