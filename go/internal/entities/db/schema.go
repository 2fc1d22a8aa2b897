package db

// Schema creates the entity tables the auction reads and settles into.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id              UUID PRIMARY KEY,
    name            TEXT    NOT NULL,
    total_count     INTEGER,
    is_auctioned    BOOLEAN NOT NULL DEFAULT FALSE,
    auction_summary JSONB
);

CREATE TABLE IF NOT EXISTS users (
    id       UUID PRIMARY KEY,
    username TEXT NOT NULL,
    email    TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS teams (
    id              UUID PRIMARY KEY,
    account_id      UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    image_url       TEXT,
    owner_player_id UUID,
    owner_user_id   UUID REFERENCES users(id) ON DELETE SET NULL,
    owner_budget    NUMERIC(14, 2)
);

CREATE TABLE IF NOT EXISTS players (
    id             UUID PRIMARY KEY,
    account_id     UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    name           TEXT NOT NULL,
    employee_id    INTEGER,
    email          TEXT,
    skill          TEXT,
    bio            TEXT,
    image_url      TEXT,
    team_id        UUID REFERENCES teams(id) ON DELETE SET NULL,
    last_bid_id    UUID,
    auction_status TEXT CHECK (auction_status IN ('SOLD', 'UNSOLD', 'OWNER'))
);

CREATE TABLE IF NOT EXISTS bids (
    id         UUID PRIMARY KEY,
    player_id  UUID           NOT NULL REFERENCES players(id) ON DELETE CASCADE,
    team_id    UUID           NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    amount     NUMERIC(14, 2) NOT NULL,
    created_at TIMESTAMPTZ    NOT NULL
);

CREATE INDEX IF NOT EXISTS bids_player_id_idx ON bids (player_id);
`
