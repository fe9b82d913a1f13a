package runner

import (
	"os"
	"path/filepath"
)

// UVMHomeEnv overrides the location of the UVM package for Verilator runs
const UVMHomeEnv = "UVM_HOME"

// LocalUVMDir is where the UVM retrieval script unpacks the package,
// relative to the project root
const LocalUVMDir = "scripts/uvm-1.2"

var platformUVMDirs = map[string]string{
	"linux":   "/usr/local/share/uvm-1.2",
	"darwin":  "/opt/homebrew/share/uvm-1.2",
	"windows": `C:\uvm-1.2`,
}

// Candidate is one place the UVM package may live
type Candidate struct {
	Source string `json:"source"`
	Path   string `json:"path"`
}

// Dependency is the resolved UVM package. Path is empty when nothing was found.
type Dependency struct {
	Path   string      `json:"path,omitempty"`
	Source string      `json:"source,omitempty"`
	Tried  []Candidate `json:"tried,omitempty"`
}

// Found reports whether a location was resolved
func (d Dependency) Found() bool {
	return d.Path != ""
}

// UVMCandidates returns the search order: environment override, the locally
// fetched copy, then the platform install location.
func UVMCandidates(lookupEnv func(string) (string, bool), root, goos string) []Candidate {
	var candidates []Candidate
	if lookupEnv != nil {
		if v, ok := lookupEnv(UVMHomeEnv); ok && v != "" {
			candidates = append(candidates, Candidate{Source: "env " + UVMHomeEnv, Path: v})
		}
	}
	candidates = append(candidates, Candidate{Source: "local", Path: filepath.Join(root, filepath.FromSlash(LocalUVMDir))})
	if p, ok := platformUVMDirs[goos]; ok {
		candidates = append(candidates, Candidate{Source: "platform", Path: p})
	}
	return candidates
}

// Discover returns the first candidate that exists
func Discover(candidates []Candidate, exists func(string) bool) Dependency {
	dep := Dependency{Tried: candidates}
	for _, c := range candidates {
		if exists(c.Path) {
			dep.Path = c.Path
			dep.Source = c.Source
			return dep
		}
	}
	return dep
}

// DirExists reports whether path is an existing directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
