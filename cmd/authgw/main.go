package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/svbkhl/btp-smart-pro-sub001/internal"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/config"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": "v1",
		"gateway": map[string]any{
			"baseURL": "https://app.yourcompany.com",
			"addr":    ":8080",
			"name":    "authgw",
			"provider": map[string]any{
				"url":     "https://yourproject.supabase.co",
				"anonKey": map[string]string{"$env": "PROVIDER_ANON_KEY"},
			},
			"oauth": map[string]any{
				"clientId":     "your-client-id.apps.googleusercontent.com",
				"clientSecret": map[string]string{"$env": "OAUTH_CLIENT_SECRET"},
				"authUrl":      "https://accounts.google.com/o/oauth2/v2/auth",
				"tokenUrl":     "https://oauth2.googleapis.com/token",
				"scopes":       []string{"openid", "email", "profile"},
			},
			"billing": map[string]any{
				"url": "https://billing.yourcompany.com",
			},
			"admin": map[string]any{
				"enabled":     true,
				"adminEmails": []string{"admin@yourcompany.com"},
				"tokenHash":   "$2a$10$REPLACE_WITH_BCRYPT_HASH_OF_ADMIN_TOKEN",
			},
			"storage":         "memory",
			"stateSigningKey": map[string]string{"$env": "STATE_SIGNING_KEY"},
			"listenTimeout":   "8s",
			"signOutGrace":    "750ms",
			"sessionTtl":      "24h",
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(path string) error {
	result, err := config.ValidateFile(path)
	if err != nil {
		return fmt.Errorf("error during validation: %w", err)
	}

	fmt.Printf("Validating: %s\n", path)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Path != "" {
				fmt.Printf("  - %s: %s\n", err.Path, err.Message)
			} else {
				fmt.Printf("  - %s\n", err.Message)
			}
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Path != "" {
				fmt.Printf("  - %s: %s\n", warn.Path, warn.Message)
			} else {
				fmt.Printf("  - %s\n", warn.Message)
			}
		}
	}

	fmt.Println()
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		fmt.Println("Result: PASS")
	} else if len(result.Errors) == 0 {
		fmt.Println("Result: FAIL (warnings present)")
	} else {
		fmt.Println("Result: FAIL")
	}

	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		return fmt.Errorf("validation failed: %d error(s), %d warning(s)", len(result.Errors), len(result.Warnings))
	}
	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *validate {
		if *conf == "" {
			fmt.Fprintf(os.Stderr, "Error: -config flag is required for validation\n")
			os.Exit(1)
		}
		if err := validateConfig(*conf); err != nil {
			os.Exit(1)
		}
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting authgw", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	gateway, err := internal.NewAuthGateway(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create auth gateway: %v", err)
		os.Exit(1)
	}

	if err := gateway.Run(ctx); err != nil {
		log.LogError("Failed to start server: %v", err)
		os.Exit(1)
	}
}
