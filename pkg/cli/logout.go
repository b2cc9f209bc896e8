package cli

import (
	"context"
	"fmt"
)

func newLogoutCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "logout",
		Description: "Sign out and end the backend session",
		Flags:       env.newFlagSet("logout"),
	}
	cmd.Run = func(ctx context.Context, args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		rt, err := env.build(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.facade.SignOut(ctx); err != nil {
			return err
		}

		fmt.Fprintln(env.stdout(), "Signed out.")
		return nil
	}
	return cmd
}
