package olasim

import (
	"context"
	"github.com/saylorsolutions/olaui/ola"
	"time"
)

// Chase returns a frame with a single bright channel moving one channel per step, over a dim background that ramps with the step.
func Chase(step int) []byte {
	frame := make([]byte, ola.UniverseSize)
	for i := range frame {
		frame[i] = byte((step + i) % 64)
	}
	frame[step%ola.UniverseSize] = 255
	return frame
}

// Generate injects a new [Chase] frame into a universe every interval until ctx is done.
// Frames are only injected while the daemon is running, so listeners see a gap while it's stopped.
func (d *Daemon) Generate(ctx context.Context, universeID int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var step int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.Running() {
				continue
			}
			if err := d.InjectDmx(universeID, Chase(step)); err != nil {
				d.log.Warn("Failed to inject generated frame", "universe", universeID, "error", err)
				return
			}
			step++
		}
	}
}
