package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"nur_bot/internal/models"
	"nur_bot/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	at         TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS trade_events (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	at         TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL
);`

// PgStore journals commands and feedback events into Postgres.
type PgStore struct {
	tm db.TxManager
}

func NewPgStore(tm db.TxManager) *PgStore {
	return &PgStore{tm: tm}
}

func (s *PgStore) EnsureSchema(ctx context.Context) error {
	return s.tm.Run(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, schema)
		return errors.Wrap(err, "ensure journal schema")
	})
}

func (s *PgStore) RecordCommand(ctx context.Context, cmd models.Command) error {
	payload, err := sonic.Marshal(cmd)
	if err != nil {
		return errors.Wrap(err, "marshal command")
	}
	_, err = s.tm.Conn().Exec(ctx,
		`INSERT INTO commands (id, action, symbol, at, payload)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		cmd.ID, string(cmd.Action), cmd.Symbol, cmd.At, payload,
	)
	return errors.Wrap(err, "insert command")
}

func (s *PgStore) RecordEvent(ctx context.Context, ev models.TradeEvent) error {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal trade event")
	}
	_, err = s.tm.Conn().Exec(ctx,
		`INSERT INTO trade_events (id, kind, symbol, at, payload)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		ev.ID, string(ev.Kind), ev.Symbol, ev.At, payload,
	)
	return errors.Wrap(err, "insert trade event")
}
