// Package adcerrors provides structured error types for adctools.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - RequestError: client-facing (4xx-class) digestion failures carrying
//     an HTTP status, a single message, and a bounded list of sub-errors
//   - NotFoundError: absent job records or data-store records
//   - SchemaCompileError: malformed schema documents or unresolvable $refs;
//     these abort startup rather than being recoverable per-request
//   - FetchError: remote policy/certificate fetch failures
//   - StoreError: persistence failures other than "not found"
//
// # Usage with errors.As
//
//	result, err := digest.Digest(ctx, dc, decl)
//	if err != nil {
//	    var reqErr *adcerrors.RequestError
//	    if errors.As(err, &reqErr) {
//	        // Map directly to an HTTP response
//	        respond(reqErr.Status, reqErr.Message, reqErr.Errors)
//	    }
//	}
package adcerrors
