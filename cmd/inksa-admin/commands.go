package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/client"
	"github.com/diego00711/inksa-admin-sub000/internal/config"
	"github.com/diego00711/inksa-admin-sub000/internal/logger"
	"github.com/diego00711/inksa-admin-sub000/internal/resources"
	"github.com/diego00711/inksa-admin-sub000/internal/server"
	"github.com/diego00711/inksa-admin-sub000/internal/session"
	"github.com/diego00711/inksa-admin-sub000/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// env holds what every command needs: configuration, a logger and an API client backed by the session file
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	client *client.Client
}

func setup() (*env, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	log := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	// no redirect hook: an expired session surfaces once, through apiError
	store := session.NewStore(session.NewFileBackend(cfg.SessionFile), session.WithLogger(log))

	return &env{
		cfg:    cfg,
		logger: log,
		client: client.NewClient(client.OptionsFromConfig(cfg, log), store, client.NewResolver()),
	}, nil
}

var errSessionExpired = errors.New("session expired, run inksa-admin login")

// apiError turns a client error into the message printed by cobra
func apiError(err error) error {
	if client.IsAuthExpired(err) {
		return errSessionExpired
	}
	return errors.New(client.UserMessage(err))
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			log := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
			log.Info("starting console server", slog.String("version", version.Get().Version))

			srv, err := server.NewServer(cfg, log)
			if err != nil {
				return err
			}
			if err := srv.Start(cmd.Context()); err != nil {
				log.Error("console server error", slog.String("error", err.Error()))
				return err
			}

			log.Info("console server shutdown complete")
			return nil
		},
	}
}

func newLoginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Long:  `Sign in to the admin API. The password is read from standard input when --password is not given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				if email, err = prompt(cmd.ErrOrStderr(), in, "email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(cmd, in, "password: "); err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			result, err := e.client.Login(cmd.Context(), email, password)
			if err != nil {
				return apiError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", displayName(&result.Profile), result.Profile.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal, and falls back to a plain line
// read for piped input
func promptPassword(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(cmd.ErrOrStderr(), in, label)
	}

	fmt.Fprint(cmd.ErrOrStderr(), label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func displayName(p *client.Profile) string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != "" {
		return p.Email
	}
	return p.ID.String()
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			e.client.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			if !e.client.Session().Authenticated() {
				return errors.New("not signed in, run inksa-admin login")
			}

			var profile *client.Profile
			if offline {
				p, ok := e.client.CachedProfile()
				if !ok {
					return errors.New("no profile saved with the session")
				}
				profile = p
			} else if profile, err = e.client.Me(cmd.Context()); err != nil {
				return apiError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s> role=%s id=%s\n", displayName(profile), profile.Email, profile.Role, profile.ID)
			if exp, ok := e.client.Session().ExpiresAt(); ok {
				fmt.Fprintf(out, "session expires %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "print the saved profile without calling the API")
	return cmd
}

// filterValues turns repeated --filter key=value flags into query values
func filterValues(filters []string) (url.Values, error) {
	values := url.Values{}
	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", f)
		}
		values.Add(key, value)
	}
	return values, nil
}

func lookupResource(name string) (resources.Resource, error) {
	res, ok := resources.Lookup(name)
	if !ok {
		return resources.Resource{}, fmt.Errorf("unknown resource %q (available: %s)", name, strings.Join(resources.Names(), ", "))
	}
	return res, nil
}

func resourceArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return resources.Names(), cobra.ShellCompDirectiveNoFileComp
}

func newListCommand() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:               "list <resource>",
		Short:             "Print the records of a resource as JSON",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: resourceArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := lookupResource(args[0])
			if err != nil {
				return err
			}
			values, err := filterValues(filters)
			if err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}

			rows, err := res.List(cmd.Context(), e.client, values)
			if err != nil {
				return apiError(err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value (repeatable)")
	return cmd
}

func newExportCommand() *cobra.Command {
	var (
		filters []string
		output  string
	)

	cmd := &cobra.Command{
		Use:               "export <resource>",
		Short:             "Export the records of a resource to CSV",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: resourceArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := lookupResource(args[0])
			if err != nil {
				return err
			}
			values, err := filterValues(filters)
			if err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}

			if output == "" {
				output = res.Filename(time.Now())
			}

			var w io.Writer
			if output == "-" {
				w = cmd.OutOrStdout()
			} else {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			n, err := res.Export(cmd.Context(), e.client, values, w)
			if err != nil {
				if output != "-" {
					_ = os.Remove(output)
				}
				return apiError(err)
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d rows written to %s\n", n, output)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout, default <prefix>_<date>.csv)`)
	return cmd
}

func newFinanceCommand() *cobra.Command {
	finance := &cobra.Command{
		Use:   "finance",
		Short: "Platform finance reports",
	}

	var from, to string
	overview := &cobra.Command{
		Use:   "overview",
		Short: "Print the finance overview as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := parseDate("from", from)
			if err != nil {
				return err
			}
			toDate, err := parseDate("to", to)
			if err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}

			o, err := e.client.GetFinanceOverview(cmd.Context(), fromDate, toDate)
			if err != nil {
				return apiError(err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(o)
		},
	}
	overview.Flags().StringVar(&from, "from", "", "period start (YYYY-MM-DD)")
	overview.Flags().StringVar(&to, "to", "", "period end (YYYY-MM-DD)")

	finance.AddCommand(overview)
	return finance
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a date (YYYY-MM-DD)", name)
	}
	return t, nil
}
