// cmd/tools/prompt-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"advisory-engine/pkg/prompts"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/prompts.json", "Path to prompt registry file")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportPath := exportCmd.String("path", "configs/prompts.json", "Where to write the built-in registry")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showPath := showCmd.String("path", "", "Registry file (empty for built-ins)")
	showID := showCmd.String("id", "", "Template ID to print")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		// LoadRegistry validates on read.
		registry, err := prompts.LoadRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry valid: %d templates\n", len(registry.Templates))

	case "export":
		exportCmd.Parse(os.Args[2:])
		registry := prompts.Defaults()
		registry.LastUpdated = time.Now().Format(time.RFC3339)
		data, err := json.MarshalIndent(registry, "", "  ")
		if err != nil {
			fmt.Printf("Error encoding registry: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*exportPath, data, 0o644); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote built-in registry to %s\n", *exportPath)

	case "show":
		showCmd.Parse(os.Args[2:])
		if *showID == "" {
			fmt.Println("Error: id is required for show.")
			showCmd.Usage()
			os.Exit(1)
		}
		registry, err := prompts.LoadRegistry(*showPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		template, err := registry.Get(*showID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("ID: %s\nDisplay Name: %s\nPlaceholders: %v\nTemperature: %.1f\nMax Tokens: %d\n\n--- System ---\n%s\n\n--- User ---\n%s\n",
			template.ID, template.DisplayName, template.Placeholders,
			template.Temperature, template.MaxTokens, template.System, template.User)

	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: prompt-check <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  validate  Check a registry file against the schema")
	fmt.Println("  export    Write the built-in templates to a registry file")
	fmt.Println("  show      Print one template")
}
