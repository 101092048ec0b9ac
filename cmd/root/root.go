package root

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cmdAccounts "github.com/authgate/authgate/cmd/accounts"
	cmdToken "github.com/authgate/authgate/cmd/token"
	"github.com/authgate/authgate/internal/authority"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/flow"
	"github.com/authgate/authgate/internal/legacy"
	"github.com/authgate/authgate/internal/logger"
	"github.com/authgate/authgate/internal/transport"
	browserutils "github.com/authgate/authgate/utils/browser"
	promptutils "github.com/authgate/authgate/utils/prompt"
)

// runtime is everything the subcommands share. It is built once, after flag
// parsing, the first time a subcommand asks for it.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	client  *flow.Client
	store   *cache.FileStore
	manager *cache.Manager
	legacy  *legacy.Interop
}

type bootstrap struct {
	configPath string
	debug      bool

	once sync.Once
	rt   *runtime
	err  error
}

func (b *bootstrap) build() (*runtime, error) {
	b.once.Do(func() {
		b.rt, b.err = b.buildOnce()
	})
	return b.rt, b.err
}

func (b *bootstrap) buildOnce() (*runtime, error) {
	var cfg *config.Config
	var err error
	if b.configPath != "" {
		cfg, err = config.LoadConfigFrom(b.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	log, err := logger.New(b.debug || cfg.Logging.Debug)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	store := cache.NewFileStore(fs, cfg.Cache.File, log)
	manager := cache.NewManager(store)

	var interop *legacy.Interop
	if cfg.Cache.LegacyFile != "" {
		blobStore := legacy.NewFileBlobStore(fs, cfg.Cache.LegacyFile)
		interop = legacy.NewInterop(blobStore, manager, log, cfg.Logging.LogPII)
	}

	httpClient := transport.NewHTTPClient(&http.Client{Timeout: 30 * time.Second}, log)
	resolver := authority.NewResolver(httpClient, log)

	client, err := flow.NewClient(flow.Options{
		ClientID:    cfg.Auth.ClientID,
		RedirectURI: cfg.Auth.RedirectURI,
		Cache:       manager,
		Hooks:       store,
		Legacy:      interop,
		Resolver:    resolver,
		Transport:   httpClient,
		Broker:      browserutils.NewLoopbackBroker(log),
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build token client: %w", err)
	}

	return &runtime{cfg: cfg, log: log, client: client, store: store, manager: manager, legacy: interop}, nil
}

func NewRootCmd() *cobra.Command {
	boot := &bootstrap{}

	rootCmd := &cobra.Command{
		Use:   "authgate",
		Short: "Token acquisition CLI",
		Long:  `A CLI for acquiring and caching OAuth2 access tokens: browser and device-code sign-in, silent refresh, and account management.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("No subcommand provided. Showing help...")
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&boot.configPath, "config", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&boot.debug, "debug", false, "verbose logging")

	prompter := promptutils.NewTerminalPrompter()

	rootCmd.AddCommand(cmdToken.NewTokenCmd(cmdToken.Dependencies{
		Runtime: func() (*cmdToken.Runtime, error) {
			rt, err := boot.build()
			if err != nil {
				return nil, err
			}
			return &cmdToken.Runtime{Client: rt.client, Config: rt.cfg}, nil
		},
	}))

	rootCmd.AddCommand(cmdAccounts.NewAccountsCmd(cmdAccounts.Dependencies{
		Runtime: func() (*cmdAccounts.Runtime, error) {
			rt, err := boot.build()
			if err != nil {
				return nil, err
			}
			return &cmdAccounts.Runtime{
				Manager:   rt.manager,
				Hooks:     rt.store,
				Legacy:    rt.legacy,
				Authority: rt.cfg.Auth.Authority,
			}, nil
		},
		Prompter: prompter,
	}))

	return rootCmd
}
