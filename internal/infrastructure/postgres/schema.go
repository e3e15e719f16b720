package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// schema crea las tablas si no existen. Los valores de status y tipo son los persistidos
// por el sistema original y no se traducen.
const schema = `
CREATE TABLE IF NOT EXISTS funcionarios (
    id         TEXT PRIMARY KEY,
    nome       TEXT NOT NULL,
    cargo      TEXT NOT NULL DEFAULT '',
    documento  TEXT NOT NULL DEFAULT '',
    matricula  TEXT NOT NULL DEFAULT '',
    ativo      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS itens (
    id             TEXT PRIMARY KEY,
    nome           TEXT NOT NULL,
    codigo         TEXT UNIQUE,
    categoria      TEXT NOT NULL DEFAULT '',
    unidade        TEXT NOT NULL DEFAULT 'un',
    qtd_atual      INTEGER NOT NULL DEFAULT 0 CHECK (qtd_atual >= 0),
    estoque_minimo INTEGER NOT NULL DEFAULT 0 CHECK (estoque_minimo >= 0),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS onus (
    id                   TEXT PRIMARY KEY,
    codigo               TEXT NOT NULL UNIQUE,
    modelo               TEXT NOT NULL DEFAULT '',
    serial               TEXT NOT NULL DEFAULT '',
    fornecedor           TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'em_estoque'
        CHECK (status IN ('em_estoque', 'em_uso', 'extraviada', 'devolvida')),
    funcionario_atual_id TEXT REFERENCES funcionarios(id),
    os_vinculada_id      TEXT,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS onu_historico (
    seq             BIGSERIAL UNIQUE,
    id              TEXT PRIMARY KEY,
    onu_id          TEXT NOT NULL REFERENCES onus(id),
    status_anterior TEXT,
    status_novo     TEXT NOT NULL,
    funcionario_id  TEXT,
    os_id           TEXT,
    usuario_id      TEXT NOT NULL DEFAULT '',
    descricao       TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_onu_historico_onu ON onu_historico (onu_id, seq DESC);

CREATE TABLE IF NOT EXISTS movimentacoes (
    seq            BIGSERIAL UNIQUE,
    id             TEXT PRIMARY KEY,
    tipo           TEXT NOT NULL CHECK (tipo IN ('saida', 'entrada', 'devolucao', 'cancelamento')),
    item_id        TEXT REFERENCES itens(id),
    onu_id         TEXT REFERENCES onus(id),
    quantidade     INTEGER NOT NULL DEFAULT 0,
    os_id          TEXT,
    funcionario_id TEXT,
    usuario_id     TEXT NOT NULL DEFAULT '',
    descricao      TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    CHECK ((item_id IS NULL) <> (onu_id IS NULL)),
    CHECK ((item_id IS NOT NULL AND quantidade > 0) OR (onu_id IS NOT NULL AND quantidade = 0))
);

CREATE INDEX IF NOT EXISTS idx_movimentacoes_item ON movimentacoes (item_id, seq DESC);
CREATE INDEX IF NOT EXISTS idx_movimentacoes_onu ON movimentacoes (onu_id, seq DESC);
CREATE INDEX IF NOT EXISTS idx_movimentacoes_os ON movimentacoes (os_id);

CREATE TABLE IF NOT EXISTS ordens_servico (
    id             TEXT PRIMARY KEY,
    numero         BIGSERIAL UNIQUE,
    funcionario_id TEXT NOT NULL REFERENCES funcionarios(id),
    status         TEXT NOT NULL DEFAULT 'rascunho'
        CHECK (status IN ('rascunho', 'confirmada', 'cancelada', 'devolucao_parcial', 'encerrada')),
    observacoes    TEXT NOT NULL DEFAULT '',
    assinatura     TEXT,
    assinado_por   TEXT,
    assinado_em    TIMESTAMPTZ,
    lease_token    TEXT,
    lease_until    TIMESTAMPTZ,
    criado_por     TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS os_itens (
    id         TEXT PRIMARY KEY,
    os_id      TEXT NOT NULL REFERENCES ordens_servico(id),
    item_id    TEXT NOT NULL REFERENCES itens(id),
    quantidade INTEGER NOT NULL CHECK (quantidade > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (os_id, item_id)
);

CREATE TABLE IF NOT EXISTS os_onus (
    id         TEXT PRIMARY KEY,
    os_id      TEXT NOT NULL REFERENCES ordens_servico(id),
    onu_id     TEXT NOT NULL REFERENCES onus(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (os_id, onu_id)
);

CREATE TABLE IF NOT EXISTS devolucoes (
    seq         BIGSERIAL UNIQUE,
    id          TEXT PRIMARY KEY,
    os_id       TEXT NOT NULL REFERENCES ordens_servico(id),
    usuario_id  TEXT NOT NULL DEFAULT '',
    observacoes TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS devolucao_itens (
    id           TEXT PRIMARY KEY,
    devolucao_id TEXT NOT NULL REFERENCES devolucoes(id),
    item_id      TEXT NOT NULL REFERENCES itens(id),
    quantidade   INTEGER NOT NULL CHECK (quantidade > 0)
);

CREATE TABLE IF NOT EXISTS devolucao_onus (
    id           TEXT PRIMARY KEY,
    devolucao_id TEXT NOT NULL REFERENCES devolucoes(id),
    onu_id       TEXT NOT NULL REFERENCES onus(id)
);
`

// migrations se aplican en orden después del schema. Cada una debe ser idempotente;
// las nuevas se agregan al final.
var migrations = []string{
	// 1: alerta de estoque bajo por consulta indexada.
	`CREATE INDEX IF NOT EXISTS idx_itens_estoque_baixo ON itens ((qtd_atual - estoque_minimo))`,
	// 2: listado de órdenes por funcionário y estado.
	`CREATE INDEX IF NOT EXISTS idx_ordens_servico_funcionario ON ordens_servico (funcionario_id, status)`,
}

// Migrate crea el schema y aplica las migraciones dentro de una transacción.
func Migrate(ctx context.Context, q Querier) error {
	return pgx.BeginFunc(ctx, q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("crear schema: %w", err)
		}
		for i, m := range migrations {
			if _, err := tx.Exec(ctx, m); err != nil {
				return fmt.Errorf("migración %d: %w", i+1, err)
			}
		}
		return nil
	})
}
