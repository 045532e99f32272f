// Package expansion broadens recall before embedding: it generates
// semantically related query variants from pluggable signal sources and
// fuses their embeddings into one effective query vector.
//
// Expansion is strictly best-effort. A source error, a provider error or an
// empty signal all degrade to the original query; nothing in this package
// can abort a search.
//
//	exp := expander.Expand(ctx, "Radverkehr fördern", userID)
//	vec, err := fuser.BuildQueryVector(ctx, exp)
//	if err != nil {
//	    // fall back to embedding the original query alone
//	}
package expansion
