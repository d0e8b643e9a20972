// Package watermark mounts tamper-resistant watermarks into a document.
//
// # Overview
//
// A watermark is a tile rendered by the pattern package (rotated text or an
// image, plus an optional blind layer) and repeated as a CSS background over
// a container element. With Secure set, the watermark guards itself: hiding,
// restyling or removing its nodes triggers a full teardown and re-render.
//
// # Quick Start
//
//	doc := dom.New()
//	wm, err := watermark.New(ctx, doc,
//	    watermark.WithText("CONFIDENTIAL", "alice@example.com"),
//	    watermark.WithRotate(-30),
//	)
//	if err != nil {
//	    return err
//	}
//	defer wm.Destroy()
//
//	// Later: change options without rebuilding the engine.
//	err = wm.Update(ctx, watermark.WithOpacity(0.2))
//
// # Lifecycle
//
// An engine moves through Uninitialized, Rendering, Mounted and Rerendering
// and ends in Destroyed. Every render is numbered; a render whose result
// arrives after a newer render started, or after Destroy, is discarded.
//
// # Configuration
//
// Options are set with With* functions or decoded from YAML, TOML or JSON
// with ParseConfig and LoadConfig. Only the keys present in a document are
// applied, so a config file can be layered over code defaults.
//
// # Logging
//
// The package is silent by default. Call SetLogger to see guard activity
// and self-heal failures.
package watermark
