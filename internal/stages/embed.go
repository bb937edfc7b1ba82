package stages

import _ "embed"

// verifyScript is the headless verification payload run by the verify stage
// inside the installed Blender's bundled Python.
//
//go:embed scripts/verify_build.py
var verifyScript []byte

// benchmarkScript is the GPU render benchmark payload run by the benchmark
// command against the installed build.
//
//go:embed scripts/benchmark.py
var benchmarkScript []byte
