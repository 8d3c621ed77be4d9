package pipeline

import (
	"github.com/productiverage/cssminifier/internal/cssfs"
	"github.com/productiverage/cssminifier/internal/logger"
	"github.com/productiverage/cssminifier/internal/stylesheet"
	"github.com/productiverage/cssminifier/internal/transform"
)

// Assemble composes components A and C-I into a single Loader per spec
// section 4.L. The wrapping order, outermost (first to see the final
// result) to innermost (closest to the raw file), is fixed:
//
//	mediaQueryGrouper → minifier → lessCompiler → importFlattener →
//	  keyframeScoper → markerInserter → commentStripper → wrapperRenamer → fileReader
//
// Minifier sits between lessCompiler and mediaQueryGrouper even though
// spec section 4.L's prose names only seven stages: section 4.H states
// the grouper's precondition is already-minified content, which is only
// true if the minifier has already run by the time the grouper sees its
// input.
//
// gen and log are owned by the caller (spec section 9: "created fresh
// per pipeline invocation and therefore private"); Assemble never
// constructs or caches them itself.
func Assemble(root cssfs.Root, cfg Config, gen *transform.MarkerGenerator, log *logger.Log) stylesheet.Loader {
	var loader stylesheet.Loader = fileReader{root: root, extensionGlobs: cfg.ExtensionGlobs}

	loader = transform.WrapperRenamer{
		Next:     loader,
		TagName:  cfg.TagToRemove,
		Sentinel: cfg.Sentinel,
	}

	loader = transform.StripComments{Next: loader, LessComment: true}

	loader = transform.MarkerInserter{
		Next:      loader,
		Gen:       gen,
		Injection: cfg.MarkerInjection,
	}

	loader = transform.KeyframeScoper{Next: loader}

	loader = transform.ImportFlattener{
		Next:                loader,
		OnCircularImport:    cfg.OnCircularImport,
		OnUnsupportedImport: cfg.OnUnsupportedImport,
		Log:                 log,
	}

	loader = transform.CompileAdapter{
		Next:            loader,
		Engine:          transform.BasicNestingCompiler{},
		Gen:             gen,
		Sentinel:        cfg.Sentinel,
		HasSentinel:     cfg.Sentinel != "",
		OnCompilerError: cfg.OnCompilerError,
		Log:             log,
	}

	loader = transform.Minifier{Next: loader}

	if cfg.GroupMediaQueries {
		loader = transform.MediaQueryGrouper{Next: loader}
	}

	return loader
}
