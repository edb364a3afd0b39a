package store

import (
	"context"
	"database/sql"
)

// ClassDeptMap is one row in the class_dept_map table: a class code
// mapped to a department short name.
type ClassDeptMap struct {
	ID        int32
	Class     string
	DeptShort string
}

// DatasetRow is one row of the combined dataset: a class mapping joined
// with its department and the responsible agents.
type DatasetRow struct {
	Class        string
	DeptShort    string
	Dept         sql.NullString
	College      sql.NullString
	CollegeShort sql.NullString
	StudyType    sql.NullString
	AgentName    sql.NullString
	AgentExt     sql.NullString
	AgentEmail   sql.NullString
	CAgentName   sql.NullString
	CAgentExt    sql.NullString
	CAgentEmail  sql.NullString
}

// ListClassDeptMaps returns all class-to-department mappings.
func (s *Store) ListClassDeptMaps(ctx context.Context) ([]ClassDeptMap, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, class, dept_short FROM class_dept_map ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClassDeptMap
	for rows.Next() {
		var m ClassDeptMap
		if err := rows.Scan(&m.ID, &m.Class, &m.DeptShort); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateClassDeptMap inserts a new class mapping.
func (s *Store) CreateClassDeptMap(ctx context.Context, m ClassDeptMap) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO class_dept_map (class, dept_short) VALUES ($1, $2)`,
		m.Class, m.DeptShort)
	return err
}

// UpdateClassDeptMap updates a mapping by id, returning the affected row count.
func (s *Store) UpdateClassDeptMap(ctx context.Context, id int32, m ClassDeptMap) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE class_dept_map SET class = $2, dept_short = $3 WHERE id = $1`,
		id, m.Class, m.DeptShort)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteClassDeptMap deletes a mapping by id, returning the affected row count.
func (s *Store) DeleteClassDeptMap(ctx context.Context, id int32) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM class_dept_map WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetDataset returns the combined class/department/agent dataset used by
// the class-converter client in a single joined query.
func (s *Store) GetDataset(ctx context.Context) ([]DatasetRow, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT m.class, m.dept_short,
			d.dept, d.college, d.college_short, d.study_type,
			d.agent_name, d.agent_ext, d.agent_email,
			ca.name, ca.ext, ca.email
		FROM class_dept_map AS m
		LEFT JOIN depts AS d ON m.dept_short = d.dept_short
		LEFT JOIN cagents AS ca ON d.cagent_id = ca.id
		ORDER BY m.class`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DatasetRow
	for rows.Next() {
		var r DatasetRow
		if err := rows.Scan(&r.Class, &r.DeptShort,
			&r.Dept, &r.College, &r.CollegeShort, &r.StudyType,
			&r.AgentName, &r.AgentExt, &r.AgentEmail,
			&r.CAgentName, &r.CAgentExt, &r.CAgentEmail); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
