/*
Package config loads replacement rules and turns them into stream pipelines.

	            +-------------+
	            |   Config    |
	            |   (Rules)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |   HCL   | |   JSONC   |
	|  Parser   | | Parser  | |  Parser   |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Parse rule files in YAML, HCL or JSON with comments
- Validate rules by compiling their patterns up front
- Build a fresh replacer chain for every file

🔄 Flow:
1. Load picks a parser by file extension
2. Validate fills in defaults and compiles every rule
3. Pipeline selects the rules whose file globs match a path
4. The resulting chain is fed to a stream Writer or Reader

📝 Rules:
Rules run in declaration order; each rule sees the output of the previous
one. Limits count per file since every file gets its own replacers. Literal
rules are case-insensitive unless case_sensitive is set; regex rules use the
i flag instead.

🔍 Example:

	cfg, err := config.Load(ctx, "replacestream.yaml")
	if err != nil {
		return err
	}

	chain, err := cfg.Chain("site/index.html")
	if err != nil {
		return err
	}
	w := stream.NewWriter(os.Stdout, chain)
*/
package config
