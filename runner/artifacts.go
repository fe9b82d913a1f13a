package runner

import "path/filepath"

// Layout holds the directories a run reads from and writes to
type Layout struct {
	Root        string `json:"root"`
	SimDir      string `json:"sim_dir"`
	LogsDir     string `json:"logs_dir"`
	CoverageDir string `json:"coverage_dir"`
	DataDir     string `json:"data_dir"`
}

// NewLayout returns the standard layout under a project root
func NewLayout(root string) Layout {
	return Layout{
		Root:        root,
		SimDir:      filepath.Join(root, "sim"),
		LogsDir:     filepath.Join(root, "logs"),
		CoverageDir: filepath.Join(root, "coverage"),
		DataDir:     filepath.Join(root, "data"),
	}
}

// OutputDirs lists the directories removed by a clean
func (l Layout) OutputDirs() []string {
	return []string{l.SimDir, l.LogsDir, l.CoverageDir}
}

// ArtifactSet lists the files a run is expected to produce. Empty fields are
// not produced by this run.
type ArtifactSet struct {
	Log            string `json:"log"`
	Waveform       string `json:"waveform"`
	CoverageDB     string `json:"coverage_db,omitempty"`
	CoverageReport string `json:"coverage_report,omitempty"`
	CoverageHTML   string `json:"coverage_html,omitempty"`
}

var waveformExt = map[SimulatorKind]string{
	SimulatorQuesta:    ".wlf",
	SimulatorVerilator: ".vcd",
}

// PlanArtifacts derives artifact paths for a test. The HTML report directory
// is shared by every test since only one test runs at a time.
func PlanArtifacts(layout Layout, test string, sim SimulatorKind, coverage, report bool) ArtifactSet {
	ext, ok := waveformExt[sim]
	if !ok {
		ext = ".vcd"
	}

	set := ArtifactSet{
		Log:      filepath.Join(layout.LogsDir, test+".log"),
		Waveform: filepath.Join(layout.LogsDir, test+ext),
	}
	if coverage || report {
		set.CoverageDB = filepath.Join(layout.CoverageDir, test+".ucdb")
	}
	if report {
		set.CoverageReport = filepath.Join(layout.CoverageDir, test+"_coverage.txt")
		set.CoverageHTML = filepath.Join(layout.CoverageDir, "html")
	}
	return set
}

// Paths returns the non-empty artifact paths in a stable order
func (a ArtifactSet) Paths() []string {
	var paths []string
	for _, p := range []string{a.Log, a.Waveform, a.CoverageDB, a.CoverageReport, a.CoverageHTML} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
