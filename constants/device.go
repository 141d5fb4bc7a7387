package constants

import (
	"strings"
)

// Device is the hardware hint handed to the converter.
type Device string

const (
	DeviceCPU  Device = "CPU"
	DeviceCUDA Device = "CUDA"
	DeviceAuto Device = "AUTO"
)

var allDevices = []Device{
	DeviceCPU,
	DeviceCUDA,
	DeviceAuto,
}

// DevicesAsStringSlice lists the accepted device names, e.g. for flag help.
func DevicesAsStringSlice() []string {
	result := make([]string, len(allDevices))
	for i, d := range allDevices {
		result[i] = string(d)
	}
	return result
}

// ParseDevice canonicalizes a user-supplied device name. Matching is
// case-insensitive; an empty value means AUTO.
func ParseDevice(input string) (Device, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DeviceAuto, true
	}

	synonyms := map[string]Device{
		"gpu":  DeviceCUDA,
		"cuda": DeviceCUDA,
		"cpu":  DeviceCPU,
		"auto": DeviceAuto,
	}
	if d, ok := synonyms[normalized]; ok {
		return d, true
	}
	return DeviceAuto, false
}
