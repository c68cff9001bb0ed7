// Package batch executes CSV-driven pipeline runs and their resume flow.
//
// Each run owns a directory under the configured output root named
// `<timestamp>_<csv-stem>_batch`. The runner writes batch_config.json at
// start, one raw JSON artifact per stage per item under stage-named
// subdirectories, and a single atomic batch_summary.json at the end,
// including after an interrupt. Resume reads a prior summary, picks the
// non-successful items, and restarts each from its failed stage by
// seeding the pipeline with the saved artifacts of the earlier stages;
// unusable or missing artifacts demote the item to full reprocessing.
//
// Execution is strictly sequential. A file lock on the run directory
// makes concurrent batch or resume invocations against the same run
// fail fast instead of interleaving artifacts.
package batch
