package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luizvinicius2219/planimport/adapters/csvfile"
	"github.com/luizvinicius2219/planimport/adapters/excel"
	"github.com/luizvinicius2219/planimport/adapters/mysql"
	"github.com/luizvinicius2219/planimport/app"
	"github.com/luizvinicius2219/planimport/domain/record"
	"github.com/luizvinicius2219/planimport/domain/schema"
	"github.com/luizvinicius2219/planimport/domain/source"
	"github.com/luizvinicius2219/planimport/internal/config"
	"github.com/luizvinicius2219/planimport/internal/errors"
	"github.com/luizvinicius2219/planimport/internal/logging"
	"github.com/luizvinicius2219/planimport/ports"
)

// Container holds the engine's dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	Log      *slog.Logger
	Contract *schema.Contract
	Store    *mysql.Store
	Sources  map[source.FileKind]ports.RowSource
	Service  *app.ImportService
}

// New creates a dependency container over a loaded configuration
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// Init builds every component in dependency order: logger, schema
// contract, database connection, row sources, import service.
func (c *Container) Init(ctx context.Context) error {
	c.Log = logging.Setup(c.Config.Log.Level, c.Config.Log.Format)

	contract, err := schema.Load(c.Config.Source.SchemaFile)
	if err != nil {
		return errors.SchemaInvalid(fmt.Sprintf("%s: %v", c.Config.Source.SchemaFile, err))
	}
	c.Contract = contract

	store, err := mysql.Open(ctx, mysql.ConnSettings{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		Name:     c.Config.Database.Name,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
	}, c.Log)
	if err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	c.Store = store

	c.Sources = map[source.FileKind]ports.RowSource{
		source.KindExcel: excel.NewReader(c.Log),
		source.KindCSV:   csvfile.NewReader(c.Config.Source.CSVEncoding, c.Log),
	}

	c.Service = app.NewImportService(c.Contract, c.Sources, c.Store,
		app.RetryPolicy{
			MaxRetries: c.Config.Import.MaxRetries,
			Backoff:    c.Config.Import.RetryBackoff,
		},
		app.RunConfig{
			Folder:    c.Config.Source.Folder,
			BatchSize: c.Config.Import.BatchSize,
			Locale: record.Locale{
				DecimalComma: c.Config.Import.DecimalComma,
				DayFirst:     c.Config.Import.DayFirst,
			},
			AbortOnError: c.Config.Import.AbortOnError,
			DryRun:       c.Config.Import.DryRun,
		}, c.Log)

	return nil
}

// Shutdown releases everything Init acquired
func (c *Container) Shutdown() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
