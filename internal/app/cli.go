package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	RegisterCodesFlags(flags)
}

// RegisterCodesFlags registers the flags that select and tune the code data source.
func RegisterCodesFlags(flags *pflag.FlagSet) {
	flags.StringP("codes-source", "s", "", "Code data source type: file or sqlite")
	flags.StringP("codes-path", "c", "", "Path of the code data file or database")
	flags.StringP("codes-mode", "m", "", "Loading mode: eager (load all on startup) or lazy (load on first use)")
	flags.StringP("codes-default-locale", "l", "", "Default locale (defaults to the host language)")
	flags.Duration("codes-reload-interval", 0, "Reload the code data periodically (0 disables)")
	flags.Duration("codes-load-timeout", 0, "Timeout of a full load of the code data")
	flags.Bool("codes-search-enabled", true, "Build a full-text index over code names")
	flags.Int("codes-max-results", 0, "Maximum number of search results")
}
