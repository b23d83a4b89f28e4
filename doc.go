// Package tilth is the composition root of the tilth document pipeline.
//
// A pipeline is an ordered chain of modules. Each module receives the whole
// collection of documents produced by the previous one and returns a new
// collection. Documents and their metadata are immutable: every change
// produces a new value that keeps the lineage of the document it came from.
//
// The building blocks live in sub-packages:
//
//   - pkg/core: Metadata, Document, Module, Pipeline and ExecutionContext.
//   - pkg/modules: stock modules such as FrontMatter, YAML, JSON, CSV,
//     Markdown, Execute, Meta, Where, Branch and Concat.
//   - pkg/adapters/fs: ReadFiles and WriteFiles, which connect a pipeline to
//     a directory tree.
//
// Usage:
//
//	engine := tilth.New(
//		tilth.WithInputDir("content"),
//		tilth.WithOutputDir("public"),
//		tilth.WithLogger(logger),
//	)
//
//	_, err := engine.AddPipeline("posts",
//		fs.ReadFiles("posts/**/*.md"),
//		modules.FrontMatter(modules.YAML()).SkipLeadingDelimiter(),
//		modules.Markdown(),
//		fs.WriteFiles(fs.WithExtension(".html")),
//	)
//
//	err = engine.Run(ctx)
package tilth
