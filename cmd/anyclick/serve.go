package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/anyclick/anyclick/internal/agentproc"
	"github.com/anyclick/anyclick/internal/archive"
	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/history"
	"github.com/anyclick/anyclick/internal/pointer"
	"github.com/anyclick/anyclick/internal/server"
	"github.com/anyclick/anyclick/internal/toast"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local feedback server",
	Long: `Start the local HTTP server that instrumented pages submit feedback to.

Feedback routes to the adapters configured in .anyclick.kdl. With no
adapters configured, feedback is streamed into a cursor-agent session
(interactive mode) or archived locally.`,
	RunE: runServe,
}

var (
	servePort  int
	serveHost  string
	serveCwd   string
	serveMode  string
	serveModel string
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to bind (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind (default from config)")
	serveCmd.Flags().StringVarP(&serveCwd, "cwd", "d", ".", "Project directory")
	serveCmd.Flags().StringVarP(&serveMode, "mode", "m", "", "Agent mode: interactive or print (default: auto-detect)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Agent model")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig(serveCwd)

	srvCfg := server.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Origins: cfg.Server.Origins,
		Dev:     cfg.Server.Dev,
	}
	if serveHost != "" {
		srvCfg.Host = serveHost
	}
	if servePort > 0 {
		srvCfg.Port = servePort
	}
	if ut := cfg.Adapters; ut != nil && ut.UploadThing != nil {
		srvCfg.UploadToken = ut.UploadThing.Token
	}

	mode, err := resolveMode()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var agent *agentproc.Runner
	if mode == agentproc.ModeInteractive && agentproc.Installed() {
		agent = &agentproc.Runner{Dir: serveCwd, Model: serveModel}
		if err := agent.StartInteractive(ctx); err != nil {
			debug.Warn("serve", "cursor-agent unavailable: %v", err)
			agent = nil
		} else {
			defer agent.Stop()
		}
	}

	srv := server.New(srvCfg, server.Options{
		Adapter: buildAdapter(cfg),
		History: history.NewStore(),
		Toasts:  toast.NewManager(toastConfig(cfg)),
		Pointer: pointer.NewEngine(pointerConfig(cfg)),
		Archive: archive.New(serveCwd),
		Agent:   agent,
		Scopes:  config.NewScopeStack(cfg),
	})

	fmt.Printf("anyclick listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	return srv.Start(ctx)
}

// resolveMode picks the agent mode: the explicit flag wins, otherwise
// interactive when attached to a terminal.
func resolveMode() (agentproc.Mode, error) {
	if serveMode != "" {
		m := agentproc.Mode(serveMode)
		if !agentproc.ValidMode(m) {
			return "", fmt.Errorf("invalid mode %q: use interactive or print", serveMode)
		}
		return m, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return agentproc.ModeInteractive, nil
	}
	return agentproc.ModePrint, nil
}

func toastConfig(cfg *config.Config) toast.Config {
	tc := toast.DefaultConfig()
	if cfg.Toast != nil {
		if cfg.Toast.Duration > 0 {
			tc.Duration = time.Duration(cfg.Toast.Duration) * time.Millisecond
		}
		if cfg.Toast.Position != "" {
			tc.Position = cfg.Toast.Position
		}
		if cfg.Toast.MaxVisible > 0 {
			tc.MaxVisible = cfg.Toast.MaxVisible
		}
	}
	return tc
}

func pointerConfig(cfg *config.Config) pointer.Config {
	pc := pointer.Config{}
	if cfg.Pointer != nil {
		pc.Mode = pointer.Mode(cfg.Pointer.Mode)
		pc.Acceleration = cfg.Pointer.Acceleration
		pc.Friction = cfg.Pointer.Friction
		pc.MaxSpeed = cfg.Pointer.MaxSpeed
		pc.BounceDamping = cfg.Pointer.BounceDamping
	}
	return pc
}
