package repair

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passwords/internal/common"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/dmitrijs2005/passwords/internal/revisions"
)

// Report summarises one repair pass.
type Report struct {
	Scanned  int
	Repaired int
	Failed   int
}

// Engine runs the rule chain for one revision kind over the whole store.
type Engine struct {
	kind    revisions.Kind
	store   Store
	config  ConfigStore
	codec   Codec
	logger  logging.Logger
	rules   []Rule
	generic []Rule
	marker  bool
}

// NewPasswordRevisionRepair returns the engine for password revisions.
// Schema v1 custom fields are converted when the migration marker is already
// set or when running from the command line; the marker is written after
// every completed pass.
func NewPasswordRevisionRepair(ctx context.Context, store Store, config ConfigStore, codec Codec, logger logging.Logger, cliMode bool) (*Engine, error) {
	convert := cliMode
	if !convert {
		v, ok, err := config.Get(ctx, common.MigrationCustomFieldsKey)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", common.MigrationCustomFieldsKey, err)
		}
		convert = ok && v == common.MigrationCustomFieldsDone
	}

	return &Engine{
		kind:    revisions.KindPassword,
		store:   store,
		config:  config,
		codec:   codec,
		logger:  logger.With("kind", string(revisions.KindPassword)),
		rules:   PasswordRules(store, codec, convert),
		generic: GenericRules(store),
		marker:  true,
	}, nil
}

// NewRevisionRepair returns an engine applying only the generic rules to
// revisions of kind.
func NewRevisionRepair(kind revisions.Kind, store Store, codec Codec, logger logging.Logger) *Engine {
	return &Engine{
		kind:    kind,
		store:   store,
		codec:   codec,
		logger:  logger.With("kind", string(kind)),
		generic: GenericRules(store),
	}
}

// Kind returns the revision kind the engine repairs.
func (e *Engine) Kind() revisions.Kind {
	return e.kind
}

// Run repairs every stored revision of the engine's kind. Failures on single
// revisions are logged and counted; the returned error is non-nil only when
// the pass did not complete, in which case the marker is not written.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	var report Report

	e.resetPass()
	e.logger.Info(ctx, "repair pass started")

	for rev, err := range e.store.StreamAll(ctx, e.kind) {
		if err != nil {
			return report, fmt.Errorf("stream %s revisions: %w", e.kind, err)
		}

		report.Scanned++
		changed, err := e.RepairRevision(ctx, rev)
		switch {
		case err != nil:
			report.Failed++
			msg := "revision repair failed"
			if errors.Is(err, common.ErrMalformedCustomFields) {
				msg = "revision skipped"
			}
			e.logger.Warn(ctx, msg, "revision_id", rev.Header().ID, "error", err)
		case changed:
			report.Repaired++
			e.logger.Debug(ctx, "revision repaired", "revision_id", rev.Header().ID)
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if e.marker {
		if err := e.config.Set(ctx, common.MigrationCustomFieldsKey, common.MigrationCustomFieldsDone); err != nil {
			return report, fmt.Errorf("write %s: %w", common.MigrationCustomFieldsKey, err)
		}
	}

	e.logger.Info(ctx, "repair pass finished",
		"scanned", report.Scanned, "repaired", report.Repaired, "failed", report.Failed)

	return report, nil
}

// RepairRevision applies the rule chain to rev and saves it once if any rule
// changed it. A failing rule leaves rev unsaved.
func (e *Engine) RepairRevision(ctx context.Context, rev revisions.Revision) (bool, error) {
	changed := false

	for _, rules := range [][]Rule{e.rules, e.generic} {
		for _, r := range rules {
			fixed, err := r.Apply(ctx, rev)
			if err != nil {
				return false, fmt.Errorf("%s: %w", r.Name(), err)
			}
			changed = changed || fixed
		}
	}

	if !changed {
		return false, nil
	}

	if err := e.codec.Encrypt(rev); err != nil {
		return false, fmt.Errorf("encrypt: %w", err)
	}

	if err := e.store.Save(ctx, rev); err != nil {
		return false, fmt.Errorf("save: %w", err)
	}

	return true, nil
}

func (e *Engine) resetPass() {
	for _, rules := range [][]Rule{e.rules, e.generic} {
		for _, r := range rules {
			if p, ok := r.(passReset); ok {
				p.reset()
			}
		}
	}
}
