package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ILara-wd/firebase-remote-config/mcp"
)

func main() {
	cfg, err := mcp.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("invalid MCP server configuration")
		os.Exit(1)
	}
	if err := mcp.RunMCPServer(cfg); err != nil {
		log.Error().Err(err).Msg("MCP server exited with error")
		os.Exit(1)
	}
}
