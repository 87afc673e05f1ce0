// Package adctools provides tools for digesting declarative
// application-delivery-controller (ADC) configuration documents and
// translating them into ordered, idempotent device-configuration commands.
//
// A declaration is a tree of Tenant and Application nodes containing
// declared objects, each tagged with a class. Digestion runs the
// declaration through a fixed pipeline: schema validation (which records
// deferred post-process instructions), duplicate-value detection,
// post-processing (secret resolution, certificate embedding, pointer
// checks), and version-gated post-validation. The translate package then
// expands each validated object into device commands.
//
// # Overview
//
// The library consists of the following packages:
//
//   - declaration: the declaration tree model, AS3 pointer resolution,
//     and duplicate-value detection
//   - schema: schema registration, compilation, and validation with
//     custom formats and side-effecting keywords
//   - digest: the digestion pipeline tying the stages together
//   - postprocess: execution of recorded post-process instructions
//   - postvalidate: version-gated business rules
//   - translate: per-class expansion into device commands
//   - async: asynchronous job tracking with bounded retention
//
// # Quick Start
//
// Digest a declaration:
//
//	import "github.com/F5Networks/f5-appsvcs-extension-sub010/digest"
//
//	dc := &digest.Context{Target: digest.Target{Version: "14.1"}, Host: host}
//	result, err := digest.Digest(ctx, dc, decl)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, w := range result.Warnings {
//		fmt.Println(w)
//	}
//
// Translate a digested item, seeding the translation context with the
// virtual addresses the device already has:
//
//	import "github.com/F5Networks/f5-appsvcs-extension-sub010/translate"
//
//	tc := translate.NewContext("14.1")
//	if result.Environment != nil {
//		tc.SeedVirtualAddresses(result.Environment.VirtualAddressPaths()...)
//	}
//	out, err := translate.Translate(tc, "Service_HTTP", "t1", "app", "svc", item, decl)
//
// Errors across all packages are structured types in the adcerrors
// package, usable with errors.Is and errors.As.
package adctools
