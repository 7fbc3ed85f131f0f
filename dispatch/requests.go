package dispatch

import (
	"github.com/google/uuid"
	"github.com/saylorsolutions/olaui/event"
	"github.com/saylorsolutions/olaui/ola"
	"slices"
)

// execute schedules task on the active session's reactor.
// The task runs on the worker goroutine, which is the only goroutine allowed to use the client.
func (d *Dispatcher) execute(op string, task func(sess *session)) error {
	d.mux.Lock()
	sess := d.session
	d.mux.Unlock()
	if sess == nil {
		return ErrNotConnected
	}
	log := sess.log.With("op", op, "request", uuid.NewString())
	log.Debug("Scheduling request")
	sess.reactor.Execute(func() {
		log.Debug("Executing request")
		task(sess)
	})
	return nil
}

// PullUniverses fetches all universes known to olad.
func (d *Dispatcher) PullUniverses(cb ola.UniversesCallback) error {
	return d.execute("pull_universes", func(sess *session) {
		sess.client.FetchUniverses(event.Forward2(sess, cb))
	})
}

// PullDevices fetches all devices, and their ports.
func (d *Dispatcher) PullDevices(cb ola.DevicesCallback) error {
	return d.execute("pull_devices", func(sess *session) {
		sess.client.FetchDevices(event.Forward2(sess, cb))
	})
}

// Patch patches a device port to a universe, and then names the universe.
// Only the status of the patch is reported, naming is best effort.
func (d *Dispatcher) Patch(deviceAlias, port int, isOutput bool, universeID int, universeName string, cb ola.StatusCallback) error {
	return d.execute("patch", func(sess *session) {
		sess.client.PatchPort(deviceAlias, port, isOutput, ola.ActionPatch, universeID, event.Forward1(sess, cb))
		sess.client.SetUniverseName(universeID, universeName, nil)
	})
}

// Unpatch unpatches every input and output port currently patched to a universe.
// The callback receives the status of each port's unpatch, and isn't called at all if no ports are patched to the universe.
// If devices can't be fetched, then the callback receives that failure once.
func (d *Dispatcher) Unpatch(universeID int, cb ola.StatusCallback) error {
	return d.execute("unpatch", func(sess *session) {
		sess.client.FetchDevices(func(status ola.RequestStatus, devices []ola.Device) {
			if !status.Succeeded() {
				event.Forward1(sess, cb)(status)
				return
			}
			var matched int
			for _, dev := range devices {
				for _, port := range dev.PatchedPorts(universeID) {
					matched++
					sess.client.PatchPort(dev.Alias, port.ID, port.IsOutput, ola.ActionUnpatch, universeID, event.Forward1(sess, cb))
				}
			}
			if matched == 0 {
				sess.log.Debug("No ports patched to universe", "universe", universeID)
			}
		})
	})
}

// FetchDmx fetches the current DMX data of a universe.
func (d *Dispatcher) FetchDmx(universeID int, cb ola.DmxCallback) error {
	return d.execute("fetch_dmx", func(sess *session) {
		sess.client.FetchDmx(universeID, event.Forward3(sess, cb))
	})
}

// StartDmxListener registers for updates to a universe's DMX data.
// The data callback is called with each update, and cb with the status of the registration.
func (d *Dispatcher) StartDmxListener(universeID int, data ola.DataCallback, cb ola.StatusCallback) error {
	return d.execute("start_dmx_listener", func(sess *session) {
		sess.client.RegisterUniverse(universeID, ola.ActionRegister, event.Forward1(sess, data), event.Forward1(sess, cb))
	})
}

// StopDmxListener unregisters for updates to a universe's DMX data.
func (d *Dispatcher) StopDmxListener(universeID int, cb ola.StatusCallback) error {
	return d.execute("stop_dmx_listener", func(sess *session) {
		sess.client.RegisterUniverse(universeID, ola.ActionUnregister, func([]byte) {}, forwardOptional(sess, cb))
	})
}

// SendDmx sets the DMX data of a universe. The callback is optional.
// The data is copied, so the caller may reuse it.
func (d *Dispatcher) SendDmx(universeID int, data []byte, cb ola.StatusCallback) error {
	data = slices.Clone(data)
	return d.execute("send_dmx", func(sess *session) {
		sess.client.SendDmx(universeID, data, forwardOptional(sess, cb))
	})
}

// SetUniverseName renames a universe. The callback is optional.
func (d *Dispatcher) SetUniverseName(universeID int, name string, cb ola.StatusCallback) error {
	return d.execute("set_universe_name", func(sess *session) {
		sess.client.SetUniverseName(universeID, name, forwardOptional(sess, cb))
	})
}

// SetMergeMode changes how olad merges sources for a universe. The callback is optional.
func (d *Dispatcher) SetMergeMode(universeID int, mode ola.MergeMode, cb ola.StatusCallback) error {
	return d.execute("set_merge_mode", func(sess *session) {
		sess.client.SetUniverseMergeMode(universeID, mode, forwardOptional(sess, cb))
	})
}

// forwardOptional passes nil through to the client, so it can skip reporting a status nobody wants.
func forwardOptional(sink event.Sink, cb ola.StatusCallback) ola.StatusCallback {
	if cb == nil {
		return nil
	}
	return event.Forward1(sink, cb)
}
