package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/platinummonkey/signon/pkg/auth"
	"github.com/platinummonkey/signon/pkg/config"
	"github.com/platinummonkey/signon/pkg/identity"
	"github.com/platinummonkey/signon/pkg/observability"
)

func newStatusCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "status",
		Description: "Show the configured authentication strategy",
		Flags:       env.newFlagSet("status"),
	}
	cmd.Flags.Bool("check", false, "Probe the session backend and redirect store")
	cmd.Run = func(ctx context.Context, args []string) error {
		return runStatus(ctx, env, cmd, args)
	}
	return cmd
}

func runStatus(ctx context.Context, env *Env, cmd *Command, args []string) error {
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	check := cmd.Flags.Lookup("check").Value.String() == "true"

	rt, err := env.build(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	printStatus(env.stdout(), rt.facade, env.Config)

	if !check {
		return nil
	}

	health := newHealthChecker(env.Config, rt.store)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	printHealth(env.stdout(), health.Check(ctx))
	return nil
}

func printStatus(out io.Writer, facade *auth.Facade, cfg config.Config) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Strategy:\t%s\n", facade.Strategy())
	fmt.Fprintf(w, "Auth enabled:\t%t\n", facade.AuthEnabled())
	fmt.Fprintf(w, "Emulator enabled:\t%t\n", facade.EmulatorEnabled())

	params := facade.ProviderParams()
	switch facade.Strategy() {
	case auth.StrategyEmulated:
		fmt.Fprintf(w, "Emulator:\t%s\n", facade.EmulatorURL())
		fmt.Fprintf(w, "Project ID:\t%s\n", params.ProjectID)
	case auth.StrategyLive:
		fmt.Fprintf(w, "Issuer:\t%s\n", params.IssuerURL)
		fmt.Fprintf(w, "Client ID:\t%s\n", params.ClientID)
		fmt.Fprintf(w, "Redirect URL:\t%s\n", params.RedirectURL)
		fmt.Fprintf(w, "Redirect store:\t%s\n", cfg.RedirectStore.Type)
	}
	if facade.AuthEnabled() {
		fmt.Fprintf(w, "Session backend:\t%s\n", cfg.Session.URL)
	}
}

func printHealth(out io.Writer, status observability.HealthStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "\nHealth:\t%s\n", status.Status)
	for _, name := range status.SortedDependencies() {
		dep := status.Dependencies[name]
		line := fmt.Sprintf("  %s:\t%s", name, dep.Status)
		if dep.Message != "" {
			line += " (" + dep.Message + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// newHealthChecker probes the dependencies the configured strategy uses
func newHealthChecker(cfg config.Config, store identity.RedirectStore) *observability.HealthChecker {
	health := observability.NewHealthChecker("")
	if !cfg.Auth.Enabled {
		return health
	}

	client := &http.Client{Timeout: 5 * time.Second}
	health.AddCheck("session_backend", true, observability.HTTPCheck(client, cfg.Session.URL))
	if cfg.Auth.EmulatorEnabled {
		health.AddCheck("emulator", true, observability.HTTPCheck(client, "http://"+cfg.Auth.EmulatorAddr()))
	}
	if rs, ok := store.(*identity.RedisRedirectStore); ok {
		health.AddCheck("redis", true, observability.RedisCheck(rs.Client()))
	}
	return health
}
