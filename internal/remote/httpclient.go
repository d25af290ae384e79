package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ohsdesk/mesa/internal/domain"
)

// Client talks JSON to the consultancy's upstream ERP API. It is the
// default TaskService implementation; the direct-database one lives in
// remote/postgres for self-hosted deployments.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

var _ TaskService = (*Client)(nil) //nolint:gochecknoglobals // compile-time check

// NewClient creates a Client against the given base URL. The token is
// sent as a bearer credential on every request.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// taskDTO mirrors the upstream task payload. Field names follow the
// upstream API, "finalidade" included.
type taskDTO struct {
	ID              int64      `json:"id"`
	Company         string     `json:"company"`
	Unit            string     `json:"unit"`
	Finalidade      string     `json:"finalidade"`
	Sector          string     `json:"sector"`
	SectorID        *int64     `json:"sector_id,omitempty"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	Responsible     string     `json:"responsible"`
	ResponsibleID   *int64     `json:"responsible_id,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

func (d taskDTO) toDomain() domain.TaskRecord {
	return domain.TaskRecord{
		ID:              d.ID,
		Company:         d.Company,
		Unit:            d.Unit,
		Purpose:         d.Finalidade,
		Sector:          d.Sector,
		SectorID:        d.SectorID,
		Status:          d.Status,
		Priority:        d.Priority,
		ResponsibleName: d.Responsible,
		ResponsibleID:   d.ResponsibleID,
		DueDate:         d.DueDate,
		UpdatedAt:       d.UpdatedAt,
	}
}

// patchDTO carries only the fields the upstream update endpoint
// accepts. The responsible display name is resolved locally and never
// sent upstream.
type patchDTO struct {
	Status        *string    `json:"status,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	ResponsibleID *int64     `json:"responsible_id,omitempty"`
	SectorID      *int64     `json:"sector_id,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}

type userDTO struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type sectorDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type orderDTO struct {
	TaskIDs []int64 `json:"task_ids"`
}

// FetchTasks loads the ordered task list for a scope.
func (c *Client) FetchTasks(ctx context.Context, scope string) ([]domain.TaskRecord, error) {
	var dtos []taskDTO
	if err := c.do(ctx, http.MethodGet, "/units/"+scope+"/tasks", nil, &dtos); err != nil {
		return nil, fmt.Errorf("remote.Client.FetchTasks: %w", err)
	}
	records := make([]domain.TaskRecord, 0, len(dtos))
	for _, d := range dtos {
		records = append(records, d.toDomain())
	}
	return records, nil
}

// SetTaskFields applies a partial update to one task.
func (c *Client) SetTaskFields(ctx context.Context, id int64, patch domain.FieldPatch) (*domain.TaskRecord, error) {
	body := patchDTO{
		Status:        patch.Status,
		Priority:      patch.Priority,
		ResponsibleID: patch.ResponsibleID,
		SectorID:      patch.SectorID,
		DueDate:       patch.DueDate,
	}
	var dto taskDTO
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d", id), body, &dto); err != nil {
		return nil, fmt.Errorf("remote.Client.SetTaskFields: %w", err)
	}
	rec := dto.toDomain()
	return &rec, nil
}

// DeleteTask permanently removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil); err != nil {
		return fmt.Errorf("remote.Client.DeleteTask: %w", err)
	}
	return nil
}

// PersistOrder stores the new manual order for a scope.
func (c *Client) PersistOrder(ctx context.Context, scope string, ids []int64) error {
	if err := c.do(ctx, http.MethodPut, "/units/"+scope+"/task-order", orderDTO{TaskIDs: ids}, nil); err != nil {
		return fmt.Errorf("remote.Client.PersistOrder: %w", err)
	}
	return nil
}

// FetchUsersForUnit lists assignment candidates for a scope.
func (c *Client) FetchUsersForUnit(ctx context.Context, scope string) ([]domain.User, error) {
	var dtos []userDTO
	if err := c.do(ctx, http.MethodGet, "/units/"+scope+"/users", nil, &dtos); err != nil {
		return nil, fmt.Errorf("remote.Client.FetchUsersForUnit: %w", err)
	}
	users := make([]domain.User, 0, len(dtos))
	for _, d := range dtos {
		users = append(users, domain.User{ID: d.ID, DisplayName: d.DisplayName, Email: d.Email})
	}
	return users, nil
}

// FetchSectors lists transfer-target sectors.
func (c *Client) FetchSectors(ctx context.Context) ([]domain.Sector, error) {
	var dtos []sectorDTO
	if err := c.do(ctx, http.MethodGet, "/sectors", nil, &dtos); err != nil {
		return nil, fmt.Errorf("remote.Client.FetchSectors: %w", err)
	}
	sectors := make([]domain.Sector, 0, len(dtos))
	for _, d := range dtos {
		sectors = append(sectors, domain.Sector{ID: d.ID, Name: d.Name})
	}
	return sectors, nil
}

// do runs one JSON round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Debug().Str("method", method).Str("path", path).
			Int("status", resp.StatusCode).Bytes("body", snippet).
			Msg("upstream error response")
		return fmt.Errorf("%s %s: upstream status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
