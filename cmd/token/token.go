package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/flow"
	"github.com/authgate/authgate/models"
)

// Runtime is what the token subcommands need at execution time. Root builds
// it lazily so --config and --debug are parsed before anything is wired.
type Runtime struct {
	Client *flow.Client
	Config *config.Config
}

type Dependencies struct {
	Runtime func() (*Runtime, error)
}

func NewTokenCmd(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Acquire access tokens",
		Long:         "Acquire access tokens silently from the cache, interactively through the browser, or with the device-code flow.",
		SilenceUsage: true,
	}

	cmd.AddCommand(silentCmd(deps))
	cmd.AddCommand(interactiveCmd(deps))
	cmd.AddCommand(deviceCmd(deps))

	return cmd
}

func silentCmd(deps Dependencies) *cobra.Command {
	var (
		scopes    []string
		account   string
		loginHint string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "silent",
		Short: "Acquire a token from the cache, refreshing if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := deps.Runtime()
			if err != nil {
				return err
			}

			result, err := rt.Client.AcquireSilent(cmd.Context(), flow.SilentRequest{
				Authority:     rt.Config.Auth.Authority,
				Scopes:        scopes,
				HomeAccountID: account,
				LoginHint:     loginHint,
			})
			if errors.Is(err, flow.ErrNoTokensFound) {
				return fmt.Errorf("no cached credentials match; run 'authgate token interactive' first: %w", err)
			}
			if err != nil {
				return err
			}
			return printResult(cmd, result, asJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "scopes to request (repeatable)")
	cmd.Flags().StringVar(&account, "account", "", "home account id to use")
	cmd.Flags().StringVar(&loginHint, "login-hint", "", "username to match against cached accounts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("scope")

	return cmd
}

func interactiveCmd(deps Dependencies) *cobra.Command {
	var (
		scopes    []string
		prompt    string
		loginHint string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Sign in through the browser and acquire a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := deps.Runtime()
			if err != nil {
				return err
			}

			result, err := rt.Client.AcquireInteractive(cmd.Context(), flow.InteractiveRequest{
				Authority: rt.Config.Auth.Authority,
				Scopes:    scopes,
				Prompt:    models.PromptPolicy(prompt),
				LoginHint: loginHint,
			})
			if errors.Is(err, flow.ErrUserCancelled) {
				cmd.Println("Sign-in was cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			return printResult(cmd, result, asJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "scopes to request (repeatable)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt behavior: select_account, login, consent or none")
	cmd.Flags().StringVar(&loginHint, "login-hint", "", "username to prefill on the sign-in page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("scope")

	return cmd
}

func deviceCmd(deps Dependencies) *cobra.Command {
	var (
		scopes []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "device",
		Short: "Sign in on another device with a user code",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := deps.Runtime()
			if err != nil {
				return err
			}

			result, err := rt.Client.AcquireDeviceCode(cmd.Context(), flow.DeviceCodeRequest{
				Authority: rt.Config.Auth.Authority,
				Scopes:    scopes,
				Callback: func(info models.DeviceCodeInfo) {
					if info.Message != "" {
						cmd.Println(info.Message)
						return
					}
					cmd.Printf("To sign in, open %s and enter the code %s\n", info.VerificationURL, info.UserCode)
				},
			})
			if err != nil {
				return err
			}
			return printResult(cmd, result, asJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "scopes to request (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("scope")

	return cmd
}

func printResult(cmd *cobra.Command, result *models.TokenResult, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render result: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Println(result.AccessToken)
	if result.Account.Username != "" {
		cmd.PrintErrf("Signed in as %s\n", result.Account.Username)
	}
	cmd.PrintErrf("Expires %s, scopes: %s\n",
		result.ExpiresOn.Format("2006-01-02 15:04:05 MST"),
		strings.Join(result.GrantedScopes, " "))
	if result.Stale {
		cmd.PrintErrln("Warning: the authority is degraded; this token is past its normal lifetime.")
	}
	return nil
}
