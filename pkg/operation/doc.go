/*
Package operation applies a rule config to files on disk.

	+-------------+
	|   Runner    |
	|  (Discover) |
	+------+------+
	       |
	+------+------+
	| ProcessFile |
	|  (Stream)   |
	+------+------+

🎯 Purpose:
- Find the files a config selects with doublestar globs
- Stream each file through its own replacer pipeline in fixed size chunks
- Replace a file only when its content actually changed

🔄 Flow:
1. Discover globs the include patterns and drops excluded paths
2. ProcessFile builds a fresh pipeline for the file's path
3. Input and output are hashed with blake3 while streaming to a temp file
4. Differing digests rename the temp file over the original
5. Results are reported to the console logger and metrics collector

⚡ Concurrency:
With async enabled, files are processed on an errgroup bounded by
GOMAXPROCS. A pipeline is never shared between files.

🔍 Example:

	runner, err := operation.NewRunner(operation.Options{
		Config: cfg,
		Root:   ".",
	})
	if err != nil {
		return err
	}

	files, err := runner.Discover(ctx)
	if err != nil {
		return err
	}
	results, err := runner.Run(ctx, files)
*/
package operation
