package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/model"
	"github.com/nikbrunner/li/internal/search"
)

// filterFlags are shared by query and pick.
type filterFlags struct {
	fields     []string
	regex      bool
	ignoreCase bool
	tags       []string
	limit      int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.fields, "filter", "F", []string{"title"}, "fields to match the query against: title, desc")
	fl.BoolVarP(&f.regex, "regex", "r", false, "treat the query as a case-insensitive regular expression")
	fl.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "match the query case-insensitively")
	fl.StringSliceVarP(&f.tags, "tags", "t", nil, "only links carrying all of these tags")
	fl.IntVarP(&f.limit, "limit", "l", search.DefaultLimit, "maximum number of links")

	_ = cmd.RegisterFlagCompletionFunc("filter", cobra.FixedCompletions(
		[]string{"title", "desc"}, cobra.ShellCompDirectiveNoFileComp))
}

// filter builds the search filter from the flags and optional query arg.
func (f *filterFlags) filter(args []string) (search.Filter, error) {
	if f.limit <= 0 {
		return search.Filter{}, errors.New("limit must be a positive number")
	}

	fields := make([]search.Field, 0, len(f.fields))
	for _, name := range f.fields {
		field, err := search.ParseField(name)
		if err != nil {
			return search.Filter{}, err
		}
		fields = append(fields, field)
	}

	filter := search.Filter{
		Regex:      f.regex,
		IgnoreCase: f.ignoreCase,
		Fields:     fields,
		Tags:       model.CleanTags(f.tags),
		Limit:      f.limit,
	}
	if len(args) > 0 {
		q := args[0]
		filter.Query = &q
	}
	return filter, nil
}
