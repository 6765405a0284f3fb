package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roostchat/roost/internal/config"
	"github.com/roostchat/roost/internal/db"
	"github.com/roostchat/roost/internal/logging"
	"github.com/roostchat/roost/internal/models"
)

// app bundles everything a command needs: loaded config, open database and
// the conversation repository.
type app struct {
	cfg  *config.Config
	db   *db.DB
	repo *db.ConversationRepository
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	database, err := db.Open(cmdContext(cmd), cfg.DatabasePath(), cfg.Database.BusyTimeoutMs)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &app{
		cfg:  cfg,
		db:   database,
		repo: db.NewConversationRepository(database),
	}, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// scope resolves the filter context for a command: explicit flags win,
// otherwise the persisted CLI context applies.
func scope(cmd *cobra.Command) (models.FilterContext, error) {
	filterFlag, _ := cmd.Flags().GetString("filter")
	categoryFlag, _ := cmd.Flags().GetString("category")

	fc := models.FilterContext{Filter: models.FilterAll}

	if filterFlag == "" && categoryFlag == "" {
		stored, err := config.DefaultContextStore().Load()
		if err != nil {
			return fc, err
		}
		return stored.FilterContext()
	}

	if filterFlag != "" {
		filter, err := models.ParseFilter(filterFlag)
		if err != nil {
			return fc, err
		}
		fc.Filter = filter
	}
	fc.Category = categoryFlag
	return fc, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	flag, _ := cmd.Flags().GetBool("json")
	return flag
}

// cmdContext returns the command's context, falling back to Background for
// commands run outside cobra's Execute path (tests).
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
