package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/catalog/listing"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Browse and lend books from the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Path of the .env file to load")
	root.PersistentFlags().StringVar(&flags.baseURL, "api-url", "", "Catalog service base URL (overrides BOOKSHELF_API_URL)")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "Request timeout (overrides BOOKSHELF_TIMEOUT)")
	root.PersistentFlags().StringVar(&flags.tokenPath, "token-path", "", "Where the session token is kept (overrides BOOKSHELF_TOKEN_PATH)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn, or error (overrides BOOKSHELF_LOG_LEVEL)")

	root.AddCommand(
		newLoginCommand(&flags),
		newLogoutCommand(&flags),
		newWhoamiCommand(&flags),
		newListCommand(&flags),
		newGetCommand(&flags),
		newAddCommand(&flags),
		newUpdateCommand(&flags),
		newActionCommand(&flags),
		newRemoveCommand(&flags),
	)

	return root
}

// runWithApp builds the app for cmd, runs fn, and reports errors the notifier has not shown yet.
func runWithApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, *flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	defer a.close()

	if err = fn(ctx, a); err != nil && !errors.Is(err, errReported) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}

	return err
}

func newLoginCommand(flags *globalFlags) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				prompt := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

				if username == "" {
					var err error
					if username, err = prompt.line("Username: "); err != nil {
						return err
					}
				}

				password, err := prompt.password("Password: ")
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}

				token, err := a.catalog.Login(ctx, username, password)
				if err != nil {
					return err
				}

				if err = a.session.SignIn(token); err != nil {
					return err
				}

				_, err = fmt.Fprintf(a.out, "Signed in as %s (%s)\n", a.session.CurrentUsername(), a.session.Landing())

				return err
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account name (prompted when empty)")

	return cmd
}

func newLogoutCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(_ context.Context, a *app) error {
				return a.session.SignOut()
			})
		},
	}
}

func newWhoamiCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(_ context.Context, a *app) error {
				if err := a.requireSignIn(); err != nil {
					return err
				}

				claims := a.session.Claims()
				_, err := fmt.Fprintf(a.out, "%s (%s), session expires %s\n",
					claims.Username, claims.Role, claims.ExpiresAt.Format("2006-01-02 15:04"))

				return err
			})
		},
	}
}

func newListCommand(flags *globalFlags) *cobra.Command {
	var (
		search   string
		statuses string
		sortBy   string
		order    string
		pages    int
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books page by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.requireSignIn(); err != nil {
					return err
				}

				filter, err := catalog.ParseFilterSet(statuses)
				if err != nil {
					return err
				}

				controller, err := a.newListing(
					listing.WithSearch(search),
					listing.WithFilter(filter),
					listing.WithSort(catalog.SortField(sortBy), catalog.SortOrder(strings.ToLower(order))),
				)
				if err != nil {
					return err
				}
				defer controller.Close()

				for loaded := 0; all || loaded < pages; loaded++ {
					before := len(controller.Snapshot().Records)
					if !controller.LoadMore(ctx) {
						break
					}

					snapshot := controller.Snapshot()
					if len(snapshot.Records) == before && snapshot.HasMore {
						// The load failed and was reported through the notifier.
						return errReported
					}
				}

				snapshot := controller.Snapshot()
				if err = printRecords(a.out, snapshot.Records, a.session.Role()); err != nil {
					return err
				}

				more := ""
				if snapshot.HasMore {
					more = ", more available"
				}

				_, err = fmt.Fprintf(a.out, "%d of %d books%s\n", len(snapshot.Records), snapshot.TotalElements, more)

				return err
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Match title, author, or ISBN")
	cmd.Flags().StringVar(&statuses, "status", "", "Comma-separated statuses, e.g. AVAILABLE,RESERVED")
	cmd.Flags().StringVar(&sortBy, "sort", string(catalog.DefaultSortField), "Sort field: id, title, author, isbn, or status")
	cmd.Flags().StringVar(&order, "order", string(catalog.SortAsc), "Sort order: asc or desc")
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	cmd.Flags().BoolVar(&all, "all", false, "Load every page")

	return cmd
}

func newGetCommand(flags *globalFlags) *cobra.Command {
	var byISBN bool

	cmd := &cobra.Command{
		Use:   "get <id|isbn>",
		Short: "Show one book and the actions offered for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.requireSignIn(); err != nil {
					return err
				}

				var (
					record catalog.Record
					err    error
				)

				if byISBN {
					record, err = a.catalog.GetByISBN(ctx, args[0])
				} else {
					var id int64
					if id, err = parseID(args[0]); err != nil {
						return err
					}
					record, err = a.catalog.Get(ctx, id)
				}

				if err != nil {
					return err
				}

				return printRecords(a.out, catalog.Records{record}, a.session.Role())
			})
		},
	}

	cmd.Flags().BoolVar(&byISBN, "isbn", false, "Look the book up by ISBN")

	return cmd
}

func newAddCommand(flags *globalFlags) *cobra.Command {
	var draft catalog.Draft
	var status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.requireSignIn(); err != nil {
					return err
				}

				if status != "" {
					parsed, err := catalog.ParseStatus(status)
					if err != nil {
						return err
					}
					draft.Status = parsed
				}

				controller, err := a.newListing()
				if err != nil {
					return err
				}
				defer controller.Close()

				orchestrator, err := a.newOrchestrator(controller)
				if err != nil {
					return err
				}

				result := orchestrator.AddBook(ctx, draft)
				if !result.OK() {
					return errReported
				}

				return printRecords(a.out, catalog.Records{result.Record}, a.session.Role())
			})
		},
	}

	addDraftFlags(cmd, &draft)
	cmd.Flags().StringVar(&status, "status", "", "Initial status (AVAILABLE when empty)")

	return cmd
}

func newUpdateCommand(flags *globalFlags) *cobra.Command {
	var draft catalog.Draft

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit title, author, ISBN, or cover of a book (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.requireSignIn(); err != nil {
					return err
				}

				id, err := parseID(args[0])
				if err != nil {
					return err
				}

				current, err := a.catalog.Get(ctx, id)
				if err != nil {
					return err
				}

				record := mergeDraft(current, draft)

				controller, err := a.newListing()
				if err != nil {
					return err
				}
				defer controller.Close()

				orchestrator, err := a.newOrchestrator(controller)
				if err != nil {
					return err
				}

				result := orchestrator.UpdateBook(ctx, record)
				if !result.OK() {
					return errReported
				}

				return printRecords(a.out, catalog.Records{result.Record}, a.session.Role())
			})
		},
	}

	addDraftFlags(cmd, &draft)

	return cmd
}

func newActionCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "action <reserve|cancel|lend_out|receive|return> <id>",
		Short: "Run a lifecycle action on a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := catalog.ParseAction(args[0])
			if err != nil {
				return err
			}

			return performAction(cmd, flags, action, args[1])
		},
	}
}

func newRemoveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a book from the catalog (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return performAction(cmd, flags, catalog.ActionRemove, args[0])
		},
	}
}

func performAction(cmd *cobra.Command, flags *globalFlags, action catalog.Action, rawID string) error {
	return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
		if err := a.requireSignIn(); err != nil {
			return err
		}

		id, err := parseID(rawID)
		if err != nil {
			return err
		}

		controller, err := a.newListing()
		if err != nil {
			return err
		}
		defer controller.Close()

		orchestrator, err := a.newOrchestrator(controller)
		if err != nil {
			return err
		}

		result := orchestrator.Perform(ctx, action, id)
		if !result.OK() {
			return errReported
		}

		if action.IsRemoval() {
			return nil
		}

		return printRecords(a.out, catalog.Records{result.Record}, a.session.Role())
	})
}

func addDraftFlags(cmd *cobra.Command, draft *catalog.Draft) {
	cmd.Flags().StringVar(&draft.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&draft.Author, "author", "", "Book author")
	cmd.Flags().StringVar(&draft.ISBN, "isbn", "", "ISBN-10 or ISBN-13")
	cmd.Flags().StringVar(&draft.CoverURL, "cover", "", "Cover image URL")
}

// mergeDraft overwrites the fields of current that were given on the command line.
func mergeDraft(current catalog.Record, changes catalog.Draft) catalog.Record {
	if changes.Title != "" {
		current.Title = changes.Title
	}

	if changes.Author != "" {
		current.Author = changes.Author
	}

	if changes.ISBN != "" {
		current.ISBN = changes.ISBN
	}

	if changes.CoverURL != "" {
		current.CoverURL = changes.CoverURL
	}

	return current
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", raw)
	}

	return id, nil
}

func printRecords(out io.Writer, records catalog.Records, role catalog.Role) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tISBN\tSTATUS\tACTIONS")
	for _, r := range records {
		offered := catalog.OfferedActions(r.Status, role)
		names := make([]string, len(offered))
		for i, action := range offered {
			names[i] = action.String()
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Author, r.ISBN, r.Status, strings.Join(names, ","))
	}

	return w.Flush()
}
