// Package lifecycle implements the staged task pipeline at the heart of the
// generator: an ordered registry of named phases, blueprint delegation that
// lets extension generators replace a phase's task group wholesale, and a
// runner that executes phases strictly in registration order while threading
// one mutable RunContext through every task.
//
// Failure handling follows a small taxonomy: failed external-dependency
// checks are advisory unless marked mandatory (and always advisory when the
// run skips checks), invalid configuration is always fatal, post-generation
// helper command failures are reported as remediation text, and anything
// unexpected aborts the run immediately with the failing phase and task
// named in the diagnostic.
package lifecycle
