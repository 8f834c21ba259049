package gamelog

import (
	"context"
	"database/sql"
	"time"

	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/game"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Store keeps a history of finished games. It holds no session tokens.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (or creates) the sqlite database at path and applies the
// schema.
func Open(ctx context.Context, path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.ExecContext(ctx, Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

type Game struct {
	FinishedAt time.Time
	Outcome    game.Outcome
	Language   string
	Theme      gamedata.Theme
	ChildMode  bool
	Questions  int
	// Guess is the name of the last guess, empty when none was made.
	Guess string
}

// FromSnapshot summarizes a finished session.
func FromSnapshot(finishedAt time.Time, s game.Snapshot) Game {
	g := Game{
		FinishedAt: finishedAt,
		Outcome:    s.Outcome,
		Language:   s.Language,
		Theme:      s.Theme,
		ChildMode:  s.ChildMode,
		Questions:  s.Question(),
	}
	if s.Proposal != nil {
		g.Guess = s.Proposal.Name
	}
	return g
}

func parseOutcome(s string) game.Outcome {
	switch s {
	case game.OutcomeWin.String():
		return game.OutcomeWin
	case game.OutcomeLoss.String():
		return game.OutcomeLoss
	}
	return game.OutcomeNone
}

func (s Store) Record(ctx context.Context, g Game) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into game(finished_at, outcome, language, theme, child_mode, questions, guess)
		values (?, ?, ?, ?, ?, ?, ?)`,
		g.FinishedAt.Unix(),
		g.Outcome.String(),
		g.Language,
		string(g.Theme),
		g.ChildMode,
		g.Questions,
		g.Guess,
	)
	return err
}

// List returns the most recent games first, limit <= 0 returns every game.
func (s Store) List(ctx context.Context, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(
		ctx,
		`select finished_at, outcome, language, theme, child_mode, questions, guess
		from game order by finished_at desc, id desc limit ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var finishedAt int64
		var outcome, theme string
		var g Game
		err := rows.Scan(&finishedAt, &outcome, &g.Language, &theme, &g.ChildMode, &g.Questions, &g.Guess)
		if err != nil {
			return nil, err
		}
		g.FinishedAt = time.Unix(finishedAt, 0)
		g.Outcome = parseOutcome(outcome)
		g.Theme = gamedata.Theme(theme)
		games = append(games, g)
	}
	return games, rows.Err()
}

// Stats counts the recorded games by outcome.
func (s Store) Stats(ctx context.Context) (map[game.Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `select outcome, count(*) from game group by outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[game.Outcome]int{}
	for rows.Next() {
		var outcome string
		var count int
		err := rows.Scan(&outcome, &count)
		if err != nil {
			return nil, err
		}
		stats[parseOutcome(outcome)] += count
	}
	return stats, rows.Err()
}
