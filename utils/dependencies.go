package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Tool is an external program the pipeline shells out to
type Tool struct {
	Name     string // display name, also the package name in install hints
	Binary   string // executable name or path
	Required bool   // raw conversion is optional, encoding is not
}

// ToolStatus is the result of looking up a Tool
type ToolStatus struct {
	Tool Tool
	Path string // resolved location, empty if not found
	Err  error
}

// Found reports whether the tool was located
func (s ToolStatus) Found() bool {
	return s.Err == nil
}

// PipelineTools lists the encoder and raw converter with the configured binaries
func PipelineTools(ffmpegBinary, rawBinary string) []Tool {
	return []Tool{
		{Name: "ffmpeg", Binary: ffmpegBinary, Required: true},
		{Name: "dcraw", Binary: rawBinary, Required: false},
	}
}

// CheckTools looks up every tool in PATH
func CheckTools(tools []Tool) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(tools))
	for _, tool := range tools {
		status := ToolStatus{Tool: tool}
		path, err := exec.LookPath(tool.Binary)
		if err != nil {
			status.Err = fmt.Errorf("%s not found in PATH. %s", tool.Binary, getInstallationInstructions(tool.Name))
		} else {
			status.Path = path
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// ValidateEncoderDependencies checks that the ffmpeg binary is available
func ValidateEncoderDependencies(ffmpegBinary string) error {
	status := CheckTools([]Tool{{Name: "ffmpeg", Binary: ffmpegBinary, Required: true}})[0]
	return status.Err
}

// getInstallationInstructions returns platform-specific installation instructions
func getInstallationInstructions(name string) string {
	switch runtime.GOOS {
	case "darwin":
		return fmt.Sprintf("Install with: brew install %s", name)
	case "linux":
		return fmt.Sprintf("Install with: apt-get install %s (Ubuntu/Debian) or yum install %s (CentOS/RHEL)", name, name)
	case "windows":
		if name == "dcraw" {
			return "Download dcraw from https://www.dechifro.org/dcraw/ and add to PATH"
		}
		return "Download from https://ffmpeg.org/download.html and add to PATH"
	default:
		if name == "dcraw" {
			return "Download from https://www.dechifro.org/dcraw/"
		}
		return "Download from https://ffmpeg.org/download.html"
	}
}
