package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anyclick/anyclick/internal/server"
	"github.com/anyclick/anyclick/internal/tools"
)

const (
	serverName    = "anyclick-mcp"
	serverVersion = "0.1.0"
)

func main() {
	var (
		port        int
		showHelp    bool
		showVersion bool
	)

	flag.IntVar(&port, "port", server.DefaultPort, "Port of the local anyclick server")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.Parse()

	if showHelp {
		printHelp()
		return
	}
	if showVersion {
		fmt.Printf("%s v%s\n", serverName, serverVersion)
		return
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	client := tools.NewClient(port)

	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		&mcp.ServerOptions{
			Instructions: `UI feedback bridge to a running anyclick serve instance.

Available tools:
- feedback_submit: file feedback through the configured adapters
- toast: show a toast notification on connected pages
- capture_status: check server reachability and cursor-agent install`,
		},
	)

	tools.RegisterFeedbackTool(srv, client)
	tools.RegisterToastTool(srv, client)
	tools.RegisterStatusTool(srv, client)

	log.SetOutput(os.Stderr)
	log.Printf("Starting %s v%s", serverName, serverVersion)

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		if ctx.Err() == nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}

func printHelp() {
	fmt.Printf(`%s v%s - Anyclick MCP server

Usage:
  %s [options]

Options:
  --port PORT   Port of the local anyclick server (default %d)
  --help        Show this help
  --version     Show version

The server speaks MCP over stdio and forwards tool calls to the local
anyclick serve instance.
`, serverName, serverVersion, serverName, server.DefaultPort)
}
