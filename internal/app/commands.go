package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"github.com/sha1n/mcp-codemaster-server/internal/config"
	"github.com/sha1n/mcp-codemaster-server/internal/source"
	"golang.org/x/text/language"
)

// ListCodes prints the codesets of the configured source, or the values of
// one codeset in the order of locale.
func ListCodes(ctx context.Context, settings *config.CodesSettings, codesetID, locale string, w io.Writer) error {
	src, err := source.Open(ctx, settings.Source, settings.Path, settings.LoadTimeout, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	rows, err := src.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read codes: %w", err)
	}
	sets, err := codes.BuildCodeSets(rows)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if codesetID == "" {
		ids := make([]string, 0, len(sets))
		for id := range sets {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		_, _ = fmt.Fprintln(tw, "CODESET\tVALUES\tLOCALES\tPATTERNS")
		for _, id := range ids {
			cs := sets[id]
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", id, cs.Len(), joinTags(cs.Locales()), strings.Join(cs.Patterns(), ","))
		}
		return tw.Flush()
	}

	cs, ok := sets[codesetID]
	if !ok {
		return &codes.LookupError{Op: "list", CodesetID: codesetID, Err: codes.ErrUnknownCodeset}
	}

	tag := codes.HostLocale()
	if settings.DefaultLocale != "" {
		if tag, err = codes.ParseLocale(settings.DefaultLocale); err != nil {
			return fmt.Errorf("invalid default locale %q: %w", settings.DefaultLocale, err)
		}
	}
	if locale != "" {
		if tag, err = codes.ParseLocale(locale); err != nil {
			return fmt.Errorf("invalid locale %q: %w", locale, err)
		}
	}

	values, err := cs.Values(tag)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(tw, "VALUE\tNAME\tSHORT NAME")
	for _, value := range values {
		name, err := cs.Name(value, tag)
		if err != nil {
			return err
		}
		shortName, err := cs.ShortName(value, tag)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", value, name, shortName)
	}
	return tw.Flush()
}

// ImportCodes copies all code data from one source to another. The source
// kinds are derived from the file extensions.
func ImportCodes(ctx context.Context, from, to string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if from == "" || to == "" {
		return 0, fmt.Errorf("both --from and --to are required")
	}

	in, err := source.Open(ctx, source.KindForPath(from), from, source.DefaultLockTimeout, logger)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	rows, err := in.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", from, err)
	}
	// Reject data the store would refuse before overwriting the target
	if _, err := codes.BuildCodeSets(rows); err != nil {
		return 0, err
	}

	out, err := source.Open(ctx, source.KindForPath(to), to, source.DefaultLockTimeout, logger)
	if err != nil {
		return 0, err
	}
	defer func() { _ = out.Close() }()

	if err := out.Import(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", to, err)
	}
	logger.InfoContext(ctx, "Imported code data", "from", from, "to", to, "rows", len(rows))
	return len(rows), nil
}

func joinTags(tags []language.Tag) string {
	s := make([]string, len(tags))
	for i, tag := range tags {
		s[i] = tag.String()
	}
	return strings.Join(s, ",")
}
