// Package engine wraps the external hoedur fuzzing engine behind its
// command-line contract. It builds argument vectors for the three engine
// modes this pipeline drives (crash-archive extraction, exploration, and
// single-run root-cause tracing) and executes them through a Runner that
// treats the engine as a black box: inherited output streams, success or
// failure, filesystem side effects only.
package engine
