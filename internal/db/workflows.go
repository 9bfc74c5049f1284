package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workflow is an ordered sequence of prompt steps.
type Workflow struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Steps       []WorkflowStep
}

// WorkflowStep references one prompt within a workflow. Order indices are
// unique per workflow only by caller discipline.
type WorkflowStep struct {
	ID                string
	WorkflowID        string
	PromptID          string
	OrderIndex        int
	Notes             string
	VariableOverrides map[string]string
}

func (s *Store) CreateWorkflow(ctx context.Context, title, description string, now time.Time) (Workflow, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Workflow{}, errors.New("workflow title is required")
	}
	w := Workflow{ID: uuid.NewString(), Title: title, Description: description, CreatedAt: now, UpdatedAt: now}
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO workflows (id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.Title, nullString(w.Description), formatTime(now), formatTime(now),
	); err != nil {
		return Workflow{}, fmt.Errorf("create workflow %q: %w", title, err)
	}
	return w, nil
}

func (s *Store) UpdateWorkflow(ctx context.Context, id, title, description string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("workflow title is required")
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE workflows SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		title, nullString(description), formatTime(now), id,
	)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("update workflow %s: %w", id, err)
	}
	return nil
}

// DeleteWorkflow removes a workflow; its steps cascade.
func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("delete workflow %s: %w", id, err)
	}
	return nil
}

func scanWorkflow(row rowScanner) (Workflow, error) {
	var (
		w                    Workflow
		description          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&w.ID, &w.Title, &description, &createdAt, &updatedAt); err != nil {
		return Workflow{}, err
	}
	w.Description = description.String

	var err error
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return Workflow{}, err
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Workflow{}, err
	}
	return w, nil
}

// GetWorkflow returns a workflow with its steps in order.
func (s *Store) GetWorkflow(ctx context.Context, id string) (Workflow, error) {
	w, err := scanWorkflow(s.db.QueryRowContext(
		ctx,
		`SELECT id, title, description, created_at, updated_at FROM workflows WHERE id = ?`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Workflow{}, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Workflow{}, err
	}

	w.Steps, err = s.WorkflowSteps(ctx, id)
	if err != nil {
		return Workflow{}, err
	}
	return w, nil
}

// ListWorkflows returns workflows without their steps, ordered by title.
func (s *Store) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, title, description, created_at, updated_at FROM workflows ORDER BY title COLLATE NOCASE`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) WorkflowSteps(ctx context.Context, workflowID string) ([]WorkflowStep, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, workflow_id, prompt_id, order_index, step_notes, variable_overrides
		FROM workflow_steps WHERE workflow_id = ? ORDER BY order_index, id`,
		workflowID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []WorkflowStep
	for rows.Next() {
		var (
			step      WorkflowStep
			notes     sql.NullString
			overrides sql.NullString
		)
		if err := rows.Scan(&step.ID, &step.WorkflowID, &step.PromptID, &step.OrderIndex, &notes, &overrides); err != nil {
			return nil, err
		}
		step.Notes = notes.String
		if step.VariableOverrides, err = decodeOverrides(overrides); err != nil {
			return nil, fmt.Errorf("step %s: %w", step.ID, err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// AddWorkflowStep appends a step. A negative OrderIndex places the step
// after the current last step.
func (s *Store) AddWorkflowStep(ctx context.Context, step WorkflowStep, now time.Time) (WorkflowStep, error) {
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		step, err = AddWorkflowStepTx(ctx, tx, step, now)
		return err
	})
	return step, err
}

func AddWorkflowStepTx(ctx context.Context, tx *sql.Tx, step WorkflowStep, now time.Time) (WorkflowStep, error) {
	if step.OrderIndex < 0 {
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COALESCE(MAX(order_index) + 1, 0) FROM workflow_steps WHERE workflow_id = ?`,
			step.WorkflowID,
		).Scan(&step.OrderIndex); err != nil {
			return WorkflowStep{}, err
		}
	}
	overrides, err := encodeOverrides(step.VariableOverrides)
	if err != nil {
		return WorkflowStep{}, err
	}
	if step.ID == "" {
		step.ID = uuid.NewString()
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO workflow_steps (id, workflow_id, prompt_id, order_index, step_notes, variable_overrides)
		VALUES (?, ?, ?, ?, ?, ?)`,
		step.ID, step.WorkflowID, step.PromptID, step.OrderIndex, nullString(step.Notes), overrides,
	); err != nil {
		return WorkflowStep{}, fmt.Errorf("add step to workflow %s: %w", step.WorkflowID, err)
	}
	if err := touchWorkflow(ctx, tx, step.WorkflowID, now); err != nil {
		return WorkflowStep{}, err
	}
	return step, nil
}

// UpdateWorkflowStep rewrites a step's prompt, position, notes and overrides.
func (s *Store) UpdateWorkflowStep(ctx context.Context, step WorkflowStep, now time.Time) error {
	overrides, err := encodeOverrides(step.VariableOverrides)
	if err != nil {
		return err
	}
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE workflow_steps SET prompt_id = ?, order_index = ?, step_notes = ?, variable_overrides = ?
			WHERE id = ? AND workflow_id = ?`,
			step.PromptID, step.OrderIndex, nullString(step.Notes), overrides, step.ID, step.WorkflowID,
		)
		if err := checkAffected(res, err); err != nil {
			return fmt.Errorf("update step %s: %w", step.ID, err)
		}
		return touchWorkflow(ctx, tx, step.WorkflowID, now)
	})
}

func (s *Store) RemoveWorkflowStep(ctx context.Context, stepID string, now time.Time) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		var workflowID string
		err := tx.QueryRowContext(ctx, `SELECT workflow_id FROM workflow_steps WHERE id = ?`, stepID).Scan(&workflowID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("step %s: %w", stepID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_steps WHERE id = ?`, stepID); err != nil {
			return fmt.Errorf("remove step %s: %w", stepID, err)
		}
		return touchWorkflow(ctx, tx, workflowID, now)
	})
}

// CreateWorkflowTx inserts a workflow with a caller-chosen id and timestamps.
func CreateWorkflowTx(ctx context.Context, tx *sql.Tx, w Workflow) error {
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO workflows (id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.Title, nullString(w.Description), formatTime(w.CreatedAt), formatTime(w.UpdatedAt),
	); err != nil {
		return fmt.Errorf("create workflow %q: %w", w.Title, err)
	}
	return nil
}

func touchWorkflow(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	res, err := tx.ExecContext(ctx, `UPDATE workflows SET updated_at = ? WHERE id = ?`, formatTime(now), id)
	if err := checkAffected(res, err); err != nil {
		return fmt.Errorf("workflow %s: %w", id, err)
	}
	return nil
}

func encodeOverrides(overrides map[string]string) (sql.NullString, error) {
	if len(overrides) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(overrides)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode variable overrides: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeOverrides(raw sql.NullString) (map[string]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var overrides map[string]string
	if err := json.Unmarshal([]byte(raw.String), &overrides); err != nil {
		return nil, fmt.Errorf("decode variable overrides: %w", err)
	}
	return overrides, nil
}

// WorkflowExistsTx reports whether a workflow with id is stored.
func WorkflowExistsTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflows WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
