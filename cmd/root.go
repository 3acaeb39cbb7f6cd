package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhaoxiaowang1993/ai-doc-review/cmd/docs"
	"github.com/zhaoxiaowang1993/ai-doc-review/cmd/review"
	"github.com/zhaoxiaowang1993/ai-doc-review/cmd/rules"
	"github.com/zhaoxiaowang1993/ai-doc-review/cmd/version"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/config"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/httpclient"
	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/logger"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "docreview [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Docreview runs AI-assisted compliance reviews of documents.",
		Long: `Docreview uploads documents, runs AI-assisted compliance reviews against a
	configurable rule set and manages the detected issues through their
	accept/dismiss lifecycle, including an annotated PDF rendering.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(docs.DocsCmd)
	rootCmd.AddCommand(rules.RulesCmd)
	rootCmd.AddCommand(review.ReviewCmd)
}

func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Printf("initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	l := logger.NewLogger(AppConfig, "core")
	httpc := httpclient.InitializeRestyClient(l, AppConfig)
	client := api.New(httpc, AppConfig.Server.BaseURL, l)

	version.Init(AppConfig)
	docs.Init(AppConfig, l, client)
	rules.Init(AppConfig, l, client)
	review.Init(AppConfig, l, client, httpc)
}
