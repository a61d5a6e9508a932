package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kuzumem/kuzumem-mcp/internal/config"
	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/memory"
	"github.com/kuzumem/kuzumem-mcp/internal/server"
)

var (
	flagRepo   string
	flagBranch string
	flagRoot   string
)

var rootCmd = &cobra.Command{
	Use:           "kuzumem",
	Short:         "Graph memory bank MCP server",
	Long:          "kuzumem stores software engineering knowledge (components, decisions, rules, files, tags, daily context) in a per-project embedded graph database and serves it over the Model Context Protocol.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repository", "", "repository name (defaults to the project directory name)")
	rootCmd.PersistentFlags().StringVar(&flagBranch, "branch", "main", "branch to scope entities to")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "project-root", "", "client project root (defaults to the working directory)")
}

// buildService loads config and wires the logger, handle manager, and
// memory service every subcommand shares.
func buildService() (*memory.Service, *config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)
	manager := database.NewManager(database.Options{
		PathOverride: cfg.DBPathOverride,
		Logger:       logger,
	})
	return memory.NewService(manager, logger), cfg, logger, nil
}

// resolveScope fills root and repository from the environment when flags
// are absent.
func resolveScope(cfg *config.Config) (root, repo, branch string, err error) {
	root = flagRoot
	if root == "" {
		root = cfg.ClientProjectRoot
	}
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return "", "", "", err
		}
	}
	if root, err = filepath.Abs(root); err != nil {
		return "", "", "", err
	}
	repo = flagRepo
	if repo == "" {
		repo = filepath.Base(root)
	}
	return root, repo, flagBranch, nil
}

func newServer(svc *memory.Service, cfg *config.Config, logger *slog.Logger) *server.Server {
	server.Version = Version
	return server.New(svc, cfg, logger)
}
