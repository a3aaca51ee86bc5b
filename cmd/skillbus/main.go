// Package main is the entrypoint for the skillbus node.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/emberline/skillbus/internal/config"
	"github.com/emberline/skillbus/internal/server"
	"github.com/emberline/skillbus/pkg/manifest"
	"github.com/emberline/skillbus/pkg/skills"
)

const usage = `Usage: skillbus [command]
       skillbus serve      Start the node (channel listener, discovery broadcaster, HTTP binding).
       skillbus skills     Print the built-in skill catalog as a manifest and exit.

Commands:
  serve     (default) Start the skillbus node.
  skills    Print the skill manifest as JSON.

Environment: COMMS_URL (default nats://127.0.0.1:4222), NODE_NAME, SUBJECT_PREFIX,
RATE_LIMIT_QUOTA, RATE_LIMIT_WINDOW, MANIFEST_INTERVAL, HTTP_PORT, LLM_API_KEY. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "skills":
		if err := runSkills(); err != nil {
			log.Fatalf("skillbus skills: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("skillbus: %v", err)
	}
}

// runSkills prints the manifest the node would broadcast, without connecting
// to anything.
func runSkills() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	catalog := skills.BuildCatalog(skills.CatalogParams{Prefix: cfg.SubjectPrefix})
	reg, err := skills.NewRegistry(catalog)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	msg := manifest.Build(cfg.NodeName, reg)
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
