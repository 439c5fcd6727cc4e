package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"nbexit/internal/config"

	"github.com/spf13/cobra"
)

var (
	setAPIURL string
	setToken  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage credentials and settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := resolveConfig()

		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		_, statErr := os.Stat(path)

		fmt.Println("nbexit Configuration Status")
		fmt.Println(strings.Repeat("=", 35))
		fmt.Printf("Config file: %s (exists: %v)\n\n", path, statErr == nil)

		if cfg.API.URL != "" {
			fmt.Printf("API URL: %s (from %s)\n", cfg.API.URL, sourceOf("NETBIRD_API_URL"))
		} else {
			fmt.Println("API URL: not configured")
		}
		if cfg.API.AccessToken != "" {
			fmt.Printf("Access Token: %s (from %s)\n", config.MaskToken(cfg.API.AccessToken), sourceOf("NETBIRD_ACCESS_TOKEN"))
		} else {
			fmt.Println("Access Token: not configured")
		}

		fmt.Println()
		if err := cfg.Validate(); err != nil {
			fmt.Println("❌ Configuration is incomplete")
			fmt.Println("   Run 'nbexit config set' to configure credentials")
			os.Exit(1)
		}
		fmt.Println("✅ Configuration is complete")
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store API credentials",
	Long: "Stores the API URL in the config file and the access token in the OS\n" +
		"keyring when one is available (in the config file otherwise).",
	Run: func(cmd *cobra.Command, args []string) {
		in := bufio.NewScanner(os.Stdin)

		apiURL := setAPIURL
		if apiURL == "" {
			apiURL = promptLine(in, "NetBird API URL: ")
		}
		if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
			fmt.Fprintln(os.Stderr, "❌ Error: API URL must start with http:// or https://")
			os.Exit(1)
		}

		token := setToken
		if token == "" {
			token = promptLine(in, "Access Token: ")
		}
		if token == "" {
			fmt.Fprintln(os.Stderr, "❌ Error: access token must not be empty")
			os.Exit(1)
		}

		inKeyring, err := config.Save(configPath, apiURL, token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Error saving configuration: %s\n", err.Error())
			os.Exit(1)
		}

		fmt.Println("✅ Configuration saved successfully")
		fmt.Printf("   API URL: %s\n", strings.TrimRight(apiURL, "/"))
		if inKeyring {
			fmt.Printf("   Access Token: %s (stored in the OS keyring)\n", config.MaskToken(token))
		} else {
			fmt.Printf("   Access Token: %s (stored in the config file)\n", config.MaskToken(token))
		}
	},
}

func promptLine(in *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func sourceOf(envVar string) string {
	if os.Getenv(envVar) != "" {
		return "environment"
	}
	return "config file or keyring"
}

func init() {
	configSetCmd.Flags().StringVar(&setAPIURL, "api-url", "", "NetBird API server URL (e.g. https://api.netbird.io)")
	configSetCmd.Flags().StringVar(&setToken, "access-token", "", "NetBird API access token")

	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
