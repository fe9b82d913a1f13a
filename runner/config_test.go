package runner

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testResolver(env map[string]string, existing ...string) Resolver {
	dirs := make(map[string]bool)
	for _, d := range existing {
		dirs[d] = true
	}
	return Resolver{
		LookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		Exists: func(path string) bool { return dirs[path] },
		GOOS:   "linux",
	}
}

func testRawArgs(t *testing.T) RawArgs {
	raw := DefaultRawArgs()
	raw.Root = t.TempDir()
	return raw
}

func TestResolveDefaults(t *testing.T) {
	raw := testRawArgs(t)
	cfg, err := testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.Test != "alu_test" {
		t.Fatalf("expected default test alu_test, got %q", cfg.Test)
	}
	if !cfg.Seed.Random {
		t.Fatalf("expected backend-randomized seed")
	}
	if cfg.Verbosity != VerbosityMedium {
		t.Fatalf("expected UVM_MEDIUM, got %s", cfg.Verbosity)
	}
	if cfg.Timeout != 300*time.Second {
		t.Fatalf("expected 300s timeout, got %s", cfg.Timeout)
	}
	if !cfg.Backpressure.Enabled || cfg.Backpressure.Percent != 30 {
		t.Fatalf("unexpected backpressure: %+v", cfg.Backpressure)
	}
	if cfg.Simulator != SimulatorQuesta {
		t.Fatalf("expected questa, got %s", cfg.Simulator)
	}
	if cfg.Layout.SimDir != filepath.Join(raw.Root, "sim") {
		t.Fatalf("unexpected sim dir %s", cfg.Layout.SimDir)
	}
	if cfg.Dependency.Found() || len(cfg.Dependency.Tried) != 0 {
		t.Fatalf("questa should not search for UVM: %+v", cfg.Dependency)
	}
}

func TestResolveBackpressureRange(t *testing.T) {
	for p := 0; p <= 100; p++ {
		raw := testRawArgs(t)
		raw.Backpressure = p
		cfg, err := testResolver(nil).Resolve(raw)
		if err != nil {
			t.Fatalf("percent %d: unexpected error %v", p, err)
		}
		if !cfg.Backpressure.Enabled || cfg.Backpressure.Percent != p {
			t.Fatalf("percent %d: got %+v", p, cfg.Backpressure)
		}
	}

	for _, p := range []int{-1, -50, 101, 1000} {
		raw := testRawArgs(t)
		raw.Backpressure = p
		_, err := testResolver(nil).Resolve(raw)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("percent %d: expected ConfigError, got %v", p, err)
		}
		if cfgErr.Field != "backpressure" {
			t.Fatalf("percent %d: unexpected field %q", p, cfgErr.Field)
		}
	}
}

func TestResolveNoBackpressureIgnoresPercent(t *testing.T) {
	for _, p := range []int{30, 0, 100, 250, -5} {
		raw := testRawArgs(t)
		raw.Backpressure = p
		raw.NoBackpressure = true
		cfg, err := testResolver(nil).Resolve(raw)
		if err != nil {
			t.Fatalf("percent %d: unexpected error %v", p, err)
		}
		if cfg.Backpressure.Enabled {
			t.Fatalf("percent %d: backpressure should be disabled", p)
		}
	}
}

func TestResolveSeed(t *testing.T) {
	raw := testRawArgs(t)
	raw.Seed = 12345
	raw.SeedSet = true
	cfg, err := testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.Seed.Random || cfg.Seed.Value != 12345 {
		t.Fatalf("unexpected seed %+v", cfg.Seed)
	}

	raw.Seed = 0
	cfg, err = testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.Seed.Random {
		t.Fatalf("explicit seed 0 must stay fixed")
	}
}

func TestResolveRejectsNegativeSeedForVerilator(t *testing.T) {
	raw := testRawArgs(t)
	raw.Seed = -5
	raw.SeedSet = true
	if _, err := testResolver(nil).Resolve(raw); err != nil {
		t.Fatalf("questa accepts negative seeds: %v", err)
	}

	raw.Simulator = "verilator"
	_, err := testResolver(nil).Resolve(raw)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "seed" {
		t.Fatalf("expected seed ConfigError, got %v", err)
	}
}

func TestResolveTestName(t *testing.T) {
	bad := []string{
		"../../etc/x",
		"..",
		".",
		"sub/alu_test",
		"alu test",
		"a; exec touch /tmp/x; #",
		"alu_[test]",
		"$env(HOME)",
	}
	for _, name := range bad {
		raw := testRawArgs(t)
		raw.Test = name
		raw.TestSet = true
		_, err := testResolver(nil).Resolve(raw)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "test" {
			t.Fatalf("%q: expected test ConfigError, got %v", name, err)
		}
	}

	for _, name := range []string{"alu_test", "alu-stress.v2", "T1"} {
		raw := testRawArgs(t)
		raw.Test = name
		raw.TestSet = true
		cfg, err := testResolver(nil).Resolve(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", name, err)
		}
		log := PlanArtifacts(cfg.Layout, cfg.Test, cfg.Simulator, false, false).Log
		if filepath.Dir(log) != cfg.Layout.LogsDir {
			t.Fatalf("%q: log %s escapes %s", name, log, cfg.Layout.LogsDir)
		}
	}
}

func TestResolveRejectsBadManifestDefaultTest(t *testing.T) {
	m := DefaultManifest()
	m.DefaultTest = "../outside"
	r := testResolver(nil)
	r.Manifest = m
	if _, err := r.Resolve(testRawArgs(t)); err == nil {
		t.Fatalf("expected error for an unsafe default test")
	}
}

func TestResolveTimeout(t *testing.T) {
	raw := testRawArgs(t)
	raw.TimeoutSeconds = 45
	cfg, err := testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.Timeout != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.Timeout)
	}

	raw.GUI = true
	cfg, err = testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.Timeout != 0 {
		t.Fatalf("GUI mode must not carry a timeout, got %s", cfg.Timeout)
	}

	raw = testRawArgs(t)
	raw.TimeoutSeconds = -1
	if _, err := testResolver(nil).Resolve(raw); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}

func TestResolveVerbosity(t *testing.T) {
	tests := []struct {
		in      string
		want    Verbosity
		wantErr bool
	}{
		{in: "UVM_HIGH", want: VerbosityHigh},
		{in: "low", want: VerbosityLow},
		{in: "Uvm_Debug", want: VerbosityDebug},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		raw := testRawArgs(t)
		raw.Verbosity = tt.in
		cfg, err := testResolver(nil).Resolve(raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.in, err)
		}
		if cfg.Verbosity != tt.want {
			t.Fatalf("%s: got %s want %s", tt.in, cfg.Verbosity, tt.want)
		}
	}

	if Verbosities[0] != VerbosityNone || Verbosities[len(Verbosities)-1] != VerbosityDebug {
		t.Fatalf("verbosity levels are not ordered: %v", Verbosities)
	}
}

func TestResolveRejectsContradictions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawArgs)
	}{
		{"compile-only and no-compile", func(r *RawArgs) { r.CompileOnly = true; r.NoCompile = true }},
		{"gui on verilator", func(r *RawArgs) { r.Simulator = "verilator"; r.GUI = true }},
		{"coverage on verilator", func(r *RawArgs) { r.Simulator = "verilator"; r.Coverage = true }},
		{"coverage report on verilator", func(r *RawArgs) { r.Simulator = "verilator"; r.CoverageReport = true }},
		{"unknown simulator", func(r *RawArgs) { r.Simulator = "vcs" }},
		{"empty test", func(r *RawArgs) { r.Test = " "; r.TestSet = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testRawArgs(t)
			tt.mutate(&raw)
			_, err := testResolver(nil).Resolve(raw)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestResolveCoverageReportImpliesCoverage(t *testing.T) {
	raw := testRawArgs(t)
	raw.CoverageReport = true
	cfg, err := testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !cfg.Coverage || !cfg.CoverageReport {
		t.Fatalf("expected coverage collection and report, got %+v", cfg)
	}
}

func TestResolveCleanOnly(t *testing.T) {
	raw := testRawArgs(t)
	raw.Clean = true
	cfg, err := testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !cfg.CleanOnly {
		t.Fatalf("--clean alone should be clean-only")
	}

	raw.Test = "alu_stress_test"
	raw.TestSet = true
	cfg, err = testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.CleanOnly || !cfg.Clean {
		t.Fatalf("--clean with a test should clean then run")
	}

	raw = testRawArgs(t)
	raw.Clean = true
	raw.CompileOnly = true
	cfg, err = testResolver(nil).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.CleanOnly {
		t.Fatalf("--clean --compile-only should compile")
	}
}

func TestResolveVerilatorDependency(t *testing.T) {
	raw := testRawArgs(t)
	raw.Simulator = "verilator"
	local := filepath.Join(raw.Root, "scripts", "uvm-1.2")

	// Override wins even when the local copy exists
	cfg, err := testResolver(map[string]string{UVMHomeEnv: "/opt/uvm"}, "/opt/uvm", local).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.Dependency.Path != "/opt/uvm" {
		t.Fatalf("expected override, got %+v", cfg.Dependency)
	}

	cfg, err = testResolver(nil, local).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.Dependency.Path != local || cfg.Dependency.Source != "local" {
		t.Fatalf("expected local copy, got %+v", cfg.Dependency)
	}

	cfg, err = testResolver(map[string]string{UVMHomeEnv: "/missing"}).Resolve(raw)
	if err != nil {
		t.Fatalf("missing dependency must not fail resolution: %v", err)
	}
	if cfg.Dependency.Found() {
		t.Fatalf("expected absent dependency, got %+v", cfg.Dependency)
	}
	if len(cfg.Dependency.Tried) != 3 {
		t.Fatalf("expected 3 candidates, got %+v", cfg.Dependency.Tried)
	}
}
