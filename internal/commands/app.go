package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/tallybook-dev/tallybook/internal/accounts"
	"github.com/tallybook-dev/tallybook/internal/auditlog"
	"github.com/tallybook-dev/tallybook/internal/category"
	"github.com/tallybook-dev/tallybook/internal/config"
	"github.com/tallybook-dev/tallybook/internal/importer"
	"github.com/tallybook-dev/tallybook/internal/ledger"
	"github.com/tallybook-dev/tallybook/internal/rules"
	"github.com/tallybook-dev/tallybook/internal/store"
)

// configFile is the per-book configuration file name.
const configFile = "tallybook.yaml"

// app bundles the opened store and services behind one command run.
type app struct {
	cfg        *config.Config
	dataDir    string
	st         *store.Store
	categories *category.Service
	accounts   *accounts.Service
	rules      *rules.Service
	ledger     *ledger.Service
	pipeline   *importer.Pipeline
}

// openApp loads configuration from dir and opens every service. The
// caller must close the returned app.
func openApp(dir string) (*app, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absDir, configFile))
	if err != nil {
		return nil, fmt.Errorf("loading %s (run 'tallybook init' first?): %w", configFile, err)
	}

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(absDir, dbPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	cats, err := category.NewService(st)
	if err != nil {
		st.Close()
		return nil, err
	}

	ruleSvc := rules.NewService(st)
	pipeline := importer.NewPipeline(st, ruleSvc)
	pipeline.WindowDays = cfg.Import.DuplicateWindowDays
	pipeline.LookbackDays = cfg.Import.TransferLookbackDays

	return &app{
		cfg:        cfg,
		dataDir:    absDir,
		st:         st,
		categories: cats,
		accounts:   accounts.NewService(st),
		rules:      ruleSvc,
		ledger:     ledger.NewService(st),
		pipeline:   pipeline,
	}, nil
}

func (a *app) close() {
	a.st.Close()
}

// audit appends one audit log entry; failures are reported, not fatal.
func (a *app) audit(action, accountID, details, batchID string) {
	err := auditlog.Append(a.dataDir, []auditlog.Entry{{
		Timestamp: time.Now().UTC(),
		Action:    action,
		AccountID: accountID,
		Details:   details,
		BatchID:   batchID,
	}})
	if err != nil {
		warn.Printf("audit log: %v\n", err)
	}
}
