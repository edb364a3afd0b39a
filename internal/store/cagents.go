package store

import "context"

// CAgent is one row in the cagents table: a curriculum-office agent.
type CAgent struct {
	ID    int32
	Name  string
	Ext   string
	Email string
}

// ListCAgents returns all curriculum-office agents.
func (s *Store) ListCAgents(ctx context.Context) ([]CAgent, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, ext, email FROM cagents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CAgent
	for rows.Next() {
		var a CAgent
		if err := rows.Scan(&a.ID, &a.Name, &a.Ext, &a.Email); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateCAgent inserts a new curriculum-office agent.
func (s *Store) CreateCAgent(ctx context.Context, a CAgent) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO cagents (name, ext, email) VALUES ($1, $2, $3)`,
		a.Name, a.Ext, a.Email)
	return err
}

// UpdateCAgent updates an agent by id, returning the affected row count.
func (s *Store) UpdateCAgent(ctx context.Context, id int32, a CAgent) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE cagents SET name = $2, ext = $3, email = $4 WHERE id = $1`,
		id, a.Name, a.Ext, a.Email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCAgent deletes an agent by id, returning the affected row count.
func (s *Store) DeleteCAgent(ctx context.Context, id int32) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM cagents WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
