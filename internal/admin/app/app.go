package app

import (
	"fmt"
	"os"

	"github.com/thewages75-crypto/idnon/internal/config"
	"github.com/thewages75-crypto/idnon/internal/db"
	"github.com/thewages75-crypto/idnon/internal/delivery"
	"github.com/thewages75-crypto/idnon/internal/filter"
	"github.com/thewages75-crypto/idnon/internal/user"
)

// App bundles the repositories the moderator console works against. It
// opens the same database as the relay daemon; sqlite's busy timeout keeps
// concurrent writes from failing outright.
type App struct {
	ConfigPath string
	Config     *config.Config
	DB         *db.DB

	Users      *user.Repo
	Words      *filter.Repo
	Deliveries *delivery.Repo
}

func New(configPath string) (*App, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.Paths.Data, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	database, err := db.Open(cfg.Paths.Database)
	if err != nil {
		return nil, nil, err
	}

	a := &App{
		ConfigPath: configPath,
		Config:     cfg,
		DB:         database,
		Users:      user.NewRepo(database.DB),
		Words:      filter.NewRepo(database.DB),
		Deliveries: delivery.NewRepo(database.DB),
	}

	cleanup := func() {
		_ = database.Close()
	}

	return a, cleanup, nil
}
