package config

import (
	"fmt"
	"strings"
)

// PresentMode selects how frames are handed to the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank (FIFO). Always supported.
	PresentModeVSync PresentMode = iota
	// PresentModeImmediate presents without waiting and may tear.
	PresentModeImmediate
)

// Backend selects the graphics API the adapter request prefers.
type Backend int

const (
	BackendAuto Backend = iota
	BackendVulkan
	BackendMetal
	BackendD3D12
	BackendOpenGL
)

var presentModes = map[string]PresentMode{
	"vsync":     PresentModeVSync,
	"fifo":      PresentModeVSync,
	"immediate": PresentModeImmediate,
}

var backends = map[string]Backend{
	"auto":   BackendAuto,
	"":       BackendAuto,
	"vulkan": BackendVulkan,
	"metal":  BackendMetal,
	"d3d12":  BackendD3D12,
	"gl":     BackendOpenGL,
	"opengl": BackendOpenGL,
}

// ParsePresentMode converts a config string into a PresentMode. Matching is case-insensitive.
//
// Parameters:
//   - s: "vsync", "fifo" or "immediate"
//
// Returns:
//   - PresentMode: the parsed mode
//   - error: ErrUnknownValue if s is not recognized
func ParsePresentMode(s string) (PresentMode, error) {
	if m, ok := presentModes[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return PresentModeVSync, fmt.Errorf("%w: present mode %q", ErrUnknownValue, s)
}

// ParseBackend converts a config string into a Backend. Matching is case-insensitive.
//
// Parameters:
//   - s: "auto", "vulkan", "metal", "d3d12" or "gl"
//
// Returns:
//   - Backend: the parsed backend
//   - error: ErrUnknownValue if s is not recognized
func ParseBackend(s string) (Backend, error) {
	if b, ok := backends[strings.ToLower(strings.TrimSpace(s))]; ok {
		return b, nil
	}
	return BackendAuto, fmt.Errorf("%w: backend %q", ErrUnknownValue, s)
}

func (p PresentMode) String() string {
	if p == PresentModeImmediate {
		return "immediate"
	}
	return "vsync"
}

func (b Backend) String() string {
	switch b {
	case BackendVulkan:
		return "vulkan"
	case BackendMetal:
		return "metal"
	case BackendD3D12:
		return "d3d12"
	case BackendOpenGL:
		return "gl"
	default:
		return "auto"
	}
}
