// Package promptutils holds the interactive prompts the CLI uses for
// account management: picking a cached account and confirming sign-out.
package promptutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/authgate/authgate/internal/cache"
)

// AccountPrompter is the interactive surface of the accounts commands.
type AccountPrompter interface {
	SelectAccount(label string, accounts []cache.Account) (cache.Account, error)
	ConfirmSignOut(label string) bool
}

// ErrInterrupted reports that the user backed out of a prompt (Ctrl-C);
// callers treat it as a clean abort, not a failure.
var ErrInterrupted = errors.New("prompt interrupted")

// TerminalPrompter implements AccountPrompter on a promptui terminal UI.
type TerminalPrompter struct{}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// SelectAccount renders one line per account (username plus realm, falling
// back to the home account id when the username is empty) and returns the
// chosen account.
func (p *TerminalPrompter) SelectAccount(label string, accounts []cache.Account) (cache.Account, error) {
	items := make([]string, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, accountLabel(a))
	}

	prompt := promptui.Select{
		Label: label,
		Items: items,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return cache.Account{}, ErrInterrupted
		}
		return cache.Account{}, fmt.Errorf("account selection failed: %w", err)
	}
	return accounts[idx], nil
}

// ConfirmSignOut asks a yes/no question before tokens are discarded. Any
// error, including interrupt, counts as "no".
func (p *TerminalPrompter) ConfirmSignOut(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	answer, err := prompt.Run()
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

func accountLabel(a cache.Account) string {
	name := a.PreferredUsername
	if name == "" {
		name = a.HomeAccountID
	}
	if a.Realm == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, a.Realm)
}
