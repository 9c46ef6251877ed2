package uart

import (
	"fmt"

	bugst "go.bug.st/serial"
)

// ListPorts returns the serial devices present on the host.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("uart: list ports: %w", err)
	}
	return ports, nil
}
