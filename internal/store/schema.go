package store

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	parent_id  TEXT,
	kind       TEXT NOT NULL,
	tax_label  TEXT,
	is_account INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bank_accounts (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	account_number  TEXT NOT NULL,
	bsb             TEXT NOT NULL,
	bank_name       TEXT NOT NULL,
	current_balance TEXT NOT NULL DEFAULT '0',
	last_import_at  TEXT,
	notes           TEXT NOT NULL DEFAULT '',
	UNIQUE (bsb, account_number)
);

CREATE TABLE IF NOT EXISTS transactions (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	date                 TEXT NOT NULL,
	account_id           TEXT NOT NULL,
	description          TEXT NOT NULL,
	withdrawal           TEXT NOT NULL DEFAULT '0',
	deposit              TEXT NOT NULL DEFAULT '0',
	category_id          TEXT,
	tax_label            TEXT,
	is_tax_deductible    INTEGER NOT NULL DEFAULT 0,
	is_hidden            INTEGER NOT NULL DEFAULT 0,
	is_matched           INTEGER NOT NULL DEFAULT 0,
	is_internal_transfer INTEGER NOT NULL DEFAULT 0,
	external_balance     TEXT,
	external_id          TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_date
	ON transactions (account_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_category
	ON transactions (category_id);
CREATE INDEX IF NOT EXISTS idx_transactions_external
	ON transactions (account_id, external_id);

CREATE TABLE IF NOT EXISTS rules (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	target_category_id TEXT,
	is_transfer_target INTEGER NOT NULL DEFAULT 0,
	amount_operator    TEXT NOT NULL DEFAULT 'Any',
	amount_value       TEXT,
	amount_value2      TEXT,
	account_id         TEXT,
	date_window        TEXT NOT NULL DEFAULT 'Any',
	apply_to_future    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS rule_conditions (
	rule_id        INTEGER NOT NULL,
	sequence       INTEGER NOT NULL,
	combinator     TEXT NOT NULL DEFAULT '',
	match_text     TEXT NOT NULL,
	case_sensitive INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (rule_id, sequence)
);
`
