package codes

import (
	"context"
	"errors"

	"golang.org/x/text/language"
)

// CodeSource returns code sets by id. *Store implements it.
type CodeSource interface {
	Get(ctx context.Context, codesetID string) (*CodeSet, error)
}

// Resolver is the lookup API for code master data. Every lookup takes a
// locale; language.Und means "not given", in which case the caller-scoped
// locale from the context is used, then the default locale.
type Resolver struct {
	source        CodeSource
	defaultLocale language.Tag
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultLocale overrides the default locale derived from the host.
func WithDefaultLocale(locale language.Tag) ResolverOption {
	return func(r *Resolver) {
		if locale != language.Und {
			r.defaultLocale = locale
		}
	}
}

// NewResolver creates a resolver over the source. The default locale is
// fixed for the lifetime of the resolver.
func NewResolver(source CodeSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:        source,
		defaultLocale: HostLocale(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultLocale returns the process default locale.
func (r *Resolver) DefaultLocale() language.Tag {
	return r.defaultLocale
}

// ResolveLocale returns locale if given, else the caller-scoped locale, else
// the default locale.
func (r *Resolver) ResolveLocale(ctx context.Context, locale language.Tag) language.Tag {
	if locale != language.Und {
		return locale
	}
	if scoped, ok := LocaleFrom(ctx); ok {
		return scoped
	}
	return r.defaultLocale
}

// CodeSet returns the code set for the id.
func (r *Resolver) CodeSet(ctx context.Context, codesetID string) (*CodeSet, error) {
	cs, err := r.source.Get(ctx, codesetID)
	if err != nil {
		if errors.Is(err, ErrUnknownCodeset) {
			return nil, unknownCodeset(codesetID)
		}
		return nil, err
	}
	if cs == nil {
		return nil, unknownCodeset(codesetID)
	}
	return cs, nil
}

// Contains reports whether the value exists in the codeset.
func (r *Resolver) Contains(ctx context.Context, codesetID, value string) (bool, error) {
	cs, err := r.CodeSet(ctx, codesetID)
	if err != nil {
		return false, err
	}
	return cs.Contains(value), nil
}

// ContainsInPattern reports whether the value exists in the codeset and is a
// member of the pattern.
func (r *Resolver) ContainsInPattern(ctx context.Context, codesetID, pattern, value string) (bool, error) {
	cs, err := r.CodeSet(ctx, codesetID)
	if err != nil {
		return false, err
	}
	return cs.ContainsInPattern(pattern, value)
}

// Name returns the name of the value.
func (r *Resolver) Name(ctx context.Context, codesetID, value string, locale language.Tag) (string, error) {
	cs, err := r.CodeSet(ctx, codesetID)
	if err != nil {
		return "", err
	}
	return cs.Name(value, r.ResolveLocale(ctx, locale))
}

// ShortName returns the short name of the value.
func (r *Resolver) ShortName(ctx context.Context, codesetID, value string, locale language.Tag) (string, error) {
	cs, err := r.CodeSet(ctx, codesetID)
	if err != nil {
		return "", err
	}
	return cs.ShortName(value, r.ResolveLocale(ctx, locale))
}

// OptionalName returns the option column value of the value.
func (r *Resolver) OptionalName(ctx context.Context, codesetID, value, column string, locale language.Tag) (string, error) {
	cs, err := r.CodeSet(ctx, codesetID)
	if err != nil {
		return "", err
	}
	return cs.OptionalName(value, column, r.ResolveLocale(ctx, locale))
}

// Values returns the ordered values of the codeset.
func (r *Resolver) Values(ctx context.Context, codesetID string, locale language.Tag) ([]string, error) {
	cs, err := r.CodeSet(ctx, codesetID)
	if err != nil {
		return nil, err
	}
	return cs.Values(r.ResolveLocale(ctx, locale))
}

// ValuesInPattern returns the ordered values of the codeset that belong to the pattern.
func (r *Resolver) ValuesInPattern(ctx context.Context, codesetID, pattern string, locale language.Tag) ([]string, error) {
	cs, err := r.CodeSet(ctx, codesetID)
	if err != nil {
		return nil, err
	}
	return cs.ValuesInPattern(pattern, r.ResolveLocale(ctx, locale))
}
