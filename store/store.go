/*
 * store.go, part of simfit.
 *
 * Copyright 2024 The simfit Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package store keeps the rounds of Boltzmann-inversion fits in a SQLite file, so
// a fit can be inspected and resumed after the (slow) trial simulations.
// Each fit is a campaign, identified by a UUID.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/rmera/simfit/ibi"
	"github.com/rmera/simfit/potfit"
)

// ErrNoCampaign is returned when a campaign is not in the database.
var ErrNoCampaign = errors.New("store: no such campaign")

const (
	kindPotential = "potential"
	kindTarget    = "target"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kt REAL NOT NULL,
		created INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS potentials (
		campaign TEXT NOT NULL,
		round INTEGER NOT NULL,
		interaction TEXT NOT NULL,
		kind TEXT NOT NULL,
		idx INTEGER NOT NULL,
		x REAL NOT NULL,
		e REAL,
		p REAL,
		PRIMARY KEY (campaign, round, interaction, kind, idx)
	);

	CREATE TABLE IF NOT EXISTS merits (
		campaign TEXT NOT NULL,
		round INTEGER NOT NULL,
		interaction TEXT NOT NULL,
		merit REAL NOT NULL,
		PRIMARY KEY (campaign, round, interaction)
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_name ON campaigns(name);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Campaign is one fit. It implements ibi.Store.
type Campaign struct {
	ID      uuid.UUID
	Name    string
	KT      float64
	Created time.Time

	db *DB
}

type campaignRow struct {
	ID      string  `db:"id"`
	Name    string  `db:"name"`
	KT      float64 `db:"kt"`
	Created int64   `db:"created"`
}

func (db *DB) campaign(r campaignRow) (*Campaign, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("store: campaign %s: %w", r.Name, err)
	}
	return &Campaign{ID: id, Name: r.Name, KT: r.KT, Created: time.Unix(r.Created, 0), db: db}, nil
}

// NewCampaign registers a new fit with the given name and thermal energy.
// Names need not be unique, the ID is.
func (db *DB) NewCampaign(name string, kT float64) (*Campaign, error) {
	c := &Campaign{ID: uuid.New(), Name: name, KT: kT, Created: time.Now().Truncate(time.Second), db: db}
	_, err := db.conn.Exec("INSERT INTO campaigns (id, name, kt, created) VALUES (?, ?, ?, ?)",
		c.ID.String(), c.Name, c.KT, c.Created.Unix())
	if err != nil {
		return nil, fmt.Errorf("store: new campaign %s: %w", name, err)
	}
	log.WithFields(log.Fields{"campaign": c.ID, "name": name}).Debug("store: campaign created")
	return c, nil
}

// Campaign returns the most recent campaign with the given name, or ErrNoCampaign.
func (db *DB) Campaign(name string) (*Campaign, error) {
	var r campaignRow
	err := db.conn.Get(&r, "SELECT id, name, kt, created FROM campaigns WHERE name = ? ORDER BY created DESC, rowid DESC LIMIT 1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoCampaign, name)
	}
	if err != nil {
		return nil, err
	}
	return db.campaign(r)
}

// CampaignByID returns the campaign with the given ID, or ErrNoCampaign.
func (db *DB) CampaignByID(id uuid.UUID) (*Campaign, error) {
	var r campaignRow
	err := db.conn.Get(&r, "SELECT id, name, kt, created FROM campaigns WHERE id = ?", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoCampaign, id)
	}
	if err != nil {
		return nil, err
	}
	return db.campaign(r)
}

// nullable turns NaN (an undefined energy) into SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// SaveRound writes the potentials, the targets (when present) and the merits of a round
// in a single transaction, replacing whatever was stored for that round.
func (c *Campaign) SaveRound(round int, results []ibi.Result) error {
	tx, err := c.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := c.ID.String()
	if _, err := tx.Exec("DELETE FROM potentials WHERE campaign = ? AND round = ?", id, round); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM merits WHERE campaign = ? AND round = ?", id, round); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO potentials
		(campaign, round, interaction, kind, idx, x, e, p)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	insert := func(name, kind string, T *potfit.Table) error {
		for i, x := range T.X {
			p := sql.NullFloat64{}
			if T.P != nil {
				p = nullable(T.P[i])
			}
			if _, err := stmt.Exec(id, round, name, kind, i, x, nullable(T.E[i]), p); err != nil {
				return fmt.Errorf("store: %s %s bin %d: %w", name, kind, i, err)
			}
		}
		return nil
	}
	for _, r := range results {
		if r.Potential == nil {
			return fmt.Errorf("store: round %d: no potential for %s", round, r.Name)
		}
		if err := insert(r.Name, kindPotential, r.Potential); err != nil {
			return err
		}
		if r.Target != nil {
			if err := insert(r.Name, kindTarget, r.Target); err != nil {
				return err
			}
		}
		if _, err := tx.Exec("INSERT INTO merits (campaign, round, interaction, merit) VALUES (?, ?, ?, ?)",
			id, round, r.Name, r.Merit); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"campaign": c.Name, "round": round, "interactions": len(results)}).Debug("store: round saved")
	return nil
}

type binRow struct {
	Idx int             `db:"idx"`
	X   float64         `db:"x"`
	E   sql.NullFloat64 `db:"e"`
	P   sql.NullFloat64 `db:"p"`
}

func (c *Campaign) load(round int, interaction, kind string) (*potfit.Table, error) {
	var rows []binRow
	err := c.db.conn.Select(&rows,
		"SELECT idx, x, e, p FROM potentials WHERE campaign = ? AND round = ? AND interaction = ? AND kind = ? ORDER BY idx",
		c.ID.String(), round, interaction, kind)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store: no %s for %s in round %d of %s", kind, interaction, round, c.Name)
	}
	T := &potfit.Table{ID: interaction, X: make([]float64, len(rows)), E: make([]float64, len(rows))}
	var p []float64
	for i, r := range rows {
		T.X[i] = r.X
		T.E[i] = math.NaN()
		if r.E.Valid {
			T.E[i] = r.E.Float64
		}
		if r.P.Valid {
			if p == nil {
				p = make([]float64, len(rows))
			}
			p[i] = r.P.Float64
		}
	}
	T.P = p
	return T, nil
}

// LoadPotential returns the potential for interaction obtained in the given round.
func (c *Campaign) LoadPotential(round int, interaction string) (*potfit.Table, error) {
	return c.load(round, interaction, kindPotential)
}

// LoadTarget returns the target PMF of interaction, with its probabilities.
func (c *Campaign) LoadTarget(interaction string) (*potfit.Table, error) {
	return c.load(0, interaction, kindTarget)
}

// LastRound returns the last round saved for the campaign, or -1 if there is none.
func (c *Campaign) LastRound() (int, error) {
	var last int
	err := c.db.conn.Get(&last, "SELECT COALESCE(MAX(round), -1) FROM merits WHERE campaign = ?", c.ID.String())
	return last, err
}

// Merit is the agreement between target and trial distributions for one interaction in one round.
type Merit struct {
	Round int     `db:"round"`
	Merit float64 `db:"merit"`
}

// Merits returns the history of merits for interaction, by round.
func (c *Campaign) Merits(interaction string) ([]Merit, error) {
	var ret []Merit
	err := c.db.conn.Select(&ret,
		"SELECT round, merit FROM merits WHERE campaign = ? AND interaction = ? ORDER BY round",
		c.ID.String(), interaction)
	return ret, err
}
