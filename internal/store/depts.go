package store

import (
	"context"
	"database/sql"
)

// Dept is one row in the depts table: a department plus its in-house
// contact agent and a reference to the curriculum-office agent in charge.
type Dept struct {
	ID           int32
	College      string
	CollegeShort string
	Dept         string
	DeptShort    string
	StudyType    string
	AgentName    string
	AgentExt     string
	AgentEmail   string
	CAgentID     sql.NullInt32
}

// DeptWithCAgent is one row of the depts list query: a department joined
// with its curriculum-office agent. Kept flat so every column scans into
// a plainly named field.
type DeptWithCAgent struct {
	ID           int32
	College      string
	CollegeShort string
	Dept         string
	DeptShort    string
	StudyType    string
	AgentName    string
	AgentExt     string
	AgentEmail   string
	CAgentID     sql.NullInt32
	CAgentName   sql.NullString
	CAgentExt    sql.NullString
	CAgentEmail  sql.NullString
}

// ListDepts returns all departments joined with their curriculum-office
// agent details.
func (s *Store) ListDepts(ctx context.Context) ([]DeptWithCAgent, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT d.id, d.college, d.college_short, d.dept, d.dept_short, d.study_type,
			d.agent_name, d.agent_ext, d.agent_email,
			d.cagent_id, ca.name, ca.ext, ca.email
		FROM depts AS d
		LEFT JOIN cagents AS ca ON d.cagent_id = ca.id
		ORDER BY d.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeptWithCAgent
	for rows.Next() {
		var d DeptWithCAgent
		if err := rows.Scan(&d.ID, &d.College, &d.CollegeShort, &d.Dept, &d.DeptShort, &d.StudyType,
			&d.AgentName, &d.AgentExt, &d.AgentEmail,
			&d.CAgentID, &d.CAgentName, &d.CAgentExt, &d.CAgentEmail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateDept inserts a new department row.
func (s *Store) CreateDept(ctx context.Context, d Dept) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO depts (college, college_short, dept, dept_short, study_type,
			agent_name, agent_ext, agent_email, cagent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.College, d.CollegeShort, d.Dept, d.DeptShort, d.StudyType,
		d.AgentName, d.AgentExt, d.AgentEmail, d.CAgentID)
	return err
}

// UpdateDept updates a department by id, returning the affected row count.
func (s *Store) UpdateDept(ctx context.Context, id int32, d Dept) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE depts SET college = $2, college_short = $3, dept = $4, dept_short = $5,
			study_type = $6, agent_name = $7, agent_ext = $8, agent_email = $9, cagent_id = $10
		WHERE id = $1`,
		id, d.College, d.CollegeShort, d.Dept, d.DeptShort, d.StudyType,
		d.AgentName, d.AgentExt, d.AgentEmail, d.CAgentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteDept deletes a department by id, returning the affected row count.
func (s *Store) DeleteDept(ctx context.Context, id int32) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM depts WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
