// Package camera holds the core domain model for the camera perception
// pipeline: the per-frame working context (Frame), detected and tracked
// objects, lane lines, camera models and intrinsics, and the capability
// interfaces every pluggable processing stage implements.
//
// The package deliberately contains no orchestration logic. Stage
// implementations live under stages/, the orchestrator lives in pipeline/,
// and neither is imported from here, so plugins and the core model can be
// composed freely without cycles.
package camera
