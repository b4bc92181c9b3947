package serialmux

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// USB vendor IDs of the serial adapters commonly found on sweep sensor
// boards: Arduino, WCH CH340, Silicon Labs CP210x, FTDI.
var knownVendorIDs = map[string]bool{
	"2341": true, // Arduino
	"2A03": true, // Arduino (older boards)
	"1A86": true, // WCH CH340
	"10C4": true, // Silicon Labs CP210x
	"0403": true, // FTDI
}

// Product description keywords used as a fallback when the VID is unknown.
var productKeywords = []string{"arduino", "ch340", "cp210", "usb serial", "usb-serial", "ft232"}

// FindSensorPort scans the attached serial ports for one that looks like a
// sweep sensor board and returns its device path. It returns an error when no
// candidate is found.
func FindSensorPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		if knownVendorIDs[strings.ToUpper(port.VID)] {
			return port.Name, nil
		}
		product := strings.ToLower(port.Product)
		for _, keyword := range productKeywords {
			if strings.Contains(product, keyword) {
				return port.Name, nil
			}
		}
	}

	return "", fmt.Errorf("no sensor board found among %d serial ports", len(ports))
}
