// Package codes holds the code master lookup engine.
//
// Code data arrives from a Loader as flat rows, one per (codeset, value,
// locale). The rows of one codeset are built into an immutable CodeSet that
// answers membership, name and ordered-value queries for a given locale and
// pattern. A Store caches code sets either eagerly (everything loaded by Open
// and Reload) or lazily (one loader call per missing codeset id), and a
// Resolver puts locale defaulting and the "unknown codeset" contract in front
// of the store.
//
// Example usage:
//
//	store := codes.NewStore(loader, codes.WithMode(codes.ModeLazy))
//	if err := store.Open(ctx); err != nil {
//		return err
//	}
//	resolver := codes.NewResolver(store)
//
//	// Explicit locale
//	name, err := resolver.Name(ctx, "0001", "01", language.English)
//
//	// Caller-scoped locale, falling back to the process default
//	values, err := resolver.Values(codes.WithLocale(ctx, language.Japanese), "0001", language.Und)
package codes
