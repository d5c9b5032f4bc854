package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var tasksRoute = domain.Route{Suffix: "materials/tasks", PrimaryKey: domain.KeyTaskID}

// TaskDoc is a single calculation.
type TaskDoc struct {
	Projection

	TaskID         string         `json:"task_id"`
	Formula        string         `json:"formula_pretty,omitempty"`
	Chemsys        string         `json:"chemsys,omitempty"`
	Elements       []string       `json:"elements,omitempty"`
	NElements      int            `json:"nelements,omitempty"`
	TaskType       string         `json:"task_type,omitempty"`
	CalcType       string         `json:"calc_type,omitempty"`
	RunType        string         `json:"run_type,omitempty"`
	State          string         `json:"state,omitempty"`
	InputStructure Encoded        `json:"input_structure,omitempty"`
	Structure      Encoded        `json:"structure,omitempty"`
	Input          map[string]any `json:"input,omitempty"`
	Output         map[string]any `json:"output,omitempty"`
	OrigInputs     map[string]any `json:"orig_inputs,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Dir            string         `json:"dir_name,omitempty"`
	CompletedAt    time.Time      `json:"completed_at,omitempty"`
	LastUpdated    time.Time      `json:"last_updated,omitempty"`
}

// TasksSearch filters materials/tasks.
type TasksSearch struct {
	TaskIDs         []string   `json:"task_ids"`
	Elements        []string   `json:"elements"`
	ExcludeElements []string   `json:"exclude_elements"`
	Formula         string     `json:"formula"`
	LastUpdated     *TimeRange `json:"last_updated"`
}

func (s TasksSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "task_ids", s.TaskIDs); err != nil {
		return nil, err
	}
	c.SetList("elements", s.Elements)
	c.SetList("exclude_elements", s.ExcludeElements)
	c.SetString("formula", s.Formula)
	setTimeRange(c, "last_updated", s.LastUpdated)
	return c, nil
}

// TasksRester queries materials/tasks.
type TasksRester struct {
	*Rester[TaskDoc]
}

// Search returns the tasks matching s.
func (r *TasksRester) Search(ctx context.Context, s TasksSearch, opts ...QueryOption) ([]TaskDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}

// GetTrajectory returns the ionic steps of a calculation as raw trajectory dicts.
func (r *TasksRester) GetTrajectory(ctx context.Context, taskID string) (traj []map[string]any, err error) {
	ctx, sp := r.core.obs.begin(ctx, "get_trajectory", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	id, err := domain.ValidateIdentifier(taskID)
	if err != nil {
		return nil, fmt.Errorf("get trajectory: %w", err)
	}
	page, err := r.core.paginator.Page(query.ContextWithRoute(ctx, r.route.Suffix),
		r.route.Suffix+"/trajectory/", query.Criteria{"task_ids": []string{id}})
	if err != nil {
		return nil, fmt.Errorf("get trajectory %s: %w", id, err)
	}
	if len(page.Data) == 0 {
		return nil, fmt.Errorf("get trajectory: %w: no trajectory for task %s", domain.ErrNotFound, id)
	}
	for i, raw := range page.Data {
		page.Data[i] = r.core.decoder.DecodeRaw(raw, r.core.montyDecode)
	}
	return page.Data, nil
}
