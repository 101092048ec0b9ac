package accounts

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/authority"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/legacy"
	promptutils "github.com/authgate/authgate/utils/prompt"
)

// Runtime is the cache surface the account subcommands operate on. Legacy is
// nil when no legacy cache file is configured.
type Runtime struct {
	Manager   *cache.Manager
	Hooks     cache.AccessHooks
	Legacy    *legacy.Interop
	Authority string
}

type Dependencies struct {
	Runtime  func() (*Runtime, error)
	Prompter promptutils.AccountPrompter
}

func NewAccountsCmd(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "accounts",
		Short:        "Manage cached accounts",
		Long:         "List signed-in accounts, remove one, or clear the whole token cache.",
		SilenceUsage: true,
	}

	cmd.AddCommand(listCmd(deps))
	cmd.AddCommand(removeCmd(deps))
	cmd.AddCommand(clearCmd(deps))

	return cmd
}

func listCmd(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with cached credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := deps.Runtime()
			if err != nil {
				return err
			}

			var accounts []cache.Account
			err = withCache(rt.Hooks, func() error {
				var readErr error
				accounts, readErr = rt.Manager.AllAccounts()
				return readErr
			})
			if err != nil {
				return err
			}

			if len(accounts) == 0 {
				cmd.Println("No accounts in the cache.")
				return nil
			}
			for _, a := range accounts {
				cmd.Printf("%s\t%s\t%s\n", a.PreferredUsername, a.Realm, a.HomeAccountID)
			}
			return nil
		},
	}
}

func removeCmd(deps Dependencies) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove [username]",
		Short: "Remove one account and all of its cached tokens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := deps.Runtime()
			if err != nil {
				return err
			}

			var accounts []cache.Account
			if err := withCache(rt.Hooks, func() error {
				var readErr error
				accounts, readErr = rt.Manager.AllAccounts()
				return readErr
			}); err != nil {
				return err
			}

			target, err := pickAccount(deps.Prompter, accounts, args)
			if errors.Is(err, promptutils.ErrInterrupted) {
				return nil
			}
			if err != nil {
				return err
			}

			if !yes && !deps.Prompter.ConfirmSignOut(fmt.Sprintf("Remove %s and its tokens", target.PreferredUsername)) {
				cmd.Println("Aborted.")
				return nil
			}

			aliases, err := aliasesFor(rt.Authority)
			if err != nil {
				return err
			}

			if err := withCache(rt.Hooks, func() error {
				return rt.Manager.RemoveAccount(target.HomeAccountID, aliases)
			}); err != nil {
				return fmt.Errorf("failed to remove account: %w", err)
			}
			if rt.Legacy != nil {
				rt.Legacy.RemoveAccount(target.PreferredUsername, aliases, target.HomeAccountID)
			}

			cmd.Printf("Removed %s\n", target.PreferredUsername)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func clearCmd(deps Dependencies) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached account and token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := deps.Runtime()
			if err != nil {
				return err
			}

			if !yes && !deps.Prompter.ConfirmSignOut("Clear the entire token cache") {
				cmd.Println("Aborted.")
				return nil
			}

			aliases, err := aliasesFor(rt.Authority)
			if err != nil {
				return err
			}

			var accounts []cache.Account
			if err := withCache(rt.Hooks, func() error {
				var readErr error
				accounts, readErr = rt.Manager.AllAccounts()
				if readErr != nil {
					return readErr
				}
				return rt.Manager.Repo().Clear()
			}); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			if rt.Legacy != nil {
				for _, a := range accounts {
					rt.Legacy.RemoveAccount(a.PreferredUsername, aliases, a.HomeAccountID)
				}
			}

			cmd.Println("Cache cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// withCache brackets a cache operation with the before/after access hooks.
func withCache(hooks cache.AccessHooks, fn func() error) error {
	if err := hooks.BeforeAccess(); err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = hooks.AfterAccess() }()
	return fn()
}

func pickAccount(prompter promptutils.AccountPrompter, accounts []cache.Account, args []string) (cache.Account, error) {
	if len(accounts) == 0 {
		return cache.Account{}, errors.New("no accounts in the cache")
	}

	if len(args) == 1 {
		for _, a := range accounts {
			if a.PreferredUsername == args[0] || a.HomeAccountID == args[0] {
				return a, nil
			}
		}
		return cache.Account{}, fmt.Errorf("no cached account matches %q", args[0])
	}

	return prompter.SelectAccount("Select an account to remove", accounts)
}

func aliasesFor(rawAuthority string) ([]string, error) {
	auth, err := authority.Parse(rawAuthority)
	if err != nil {
		return nil, fmt.Errorf("invalid authority %q: %w", rawAuthority, err)
	}
	return authority.AliasesFor(auth.Host), nil
}
