package tui

// ButtonState follows the page's start button: disabled until the socket
// opens, disabled while a request is in flight, and permanently disabled
// once the socket is gone.
type ButtonState int

const (
	Connecting ButtonState = iota
	Ready
	Running
	Failed
	Disconnected
	ConnectionError
)

type Button struct {
	State ButtonState
	Err   string
}

func (b Button) Enabled() bool {
	return b.State == Ready || b.State == Failed
}

func (b Button) Label() string {
	switch b.State {
	case Connecting:
		return "Connecting to server..."
	case Ready:
		return "Start simulation"
	case Running:
		return "Running simulation..."
	case Failed:
		return "Simulation error: " + b.Err
	case Disconnected:
		return "Disconnected"
	case ConnectionError:
		return "Connection error"
	}
	return ""
}

func (b Button) render() string {
	switch {
	case b.State == Running || b.State == Connecting:
		return buttonBusy.Render(b.Label())
	case b.Enabled():
		return buttonReady.Render(b.Label())
	}
	return buttonDead.Render(b.Label())
}
