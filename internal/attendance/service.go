package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/rollcall/internal/api"
)

// Path is the collection endpoint, relative to the API base URL.
const Path = "/attendances"

var (
	// ErrMissingField is returned when a required input field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrNotCheckedIn is returned by CheckOut when no open record exists.
	ErrNotCheckedIn = errors.New("no open check-in")
)

// Lister fetches attendance records. *Service implements it.
type Lister interface {
	List(ctx context.Context, filter Filter) ([]Record, error)
}

var _ Lister = (*Service)(nil)

// Filter narrows List results. Zero fields are not sent.
type Filter struct {
	PersonnelID int64
	Date        string
	From        string
	To          string
	Status      Status
	Limit       int
	Page        int
}

func (f Filter) values() url.Values {
	values := url.Values{}
	if f.PersonnelID > 0 {
		values.Set("personnel_id", strconv.FormatInt(f.PersonnelID, 10))
	}
	if date := strings.TrimSpace(f.Date); date != "" {
		values.Set("date", date)
	}
	if from := strings.TrimSpace(f.From); from != "" {
		values.Set("from", from)
	}
	if to := strings.TrimSpace(f.To); to != "" {
		values.Set("to", to)
	}
	if f.Status != "" {
		values.Set("status", string(f.Status))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	return values
}

// Service is the attendance CRUD client. It expects an api.Client whose
// transport already handles authentication.
type Service struct {
	client *api.Client
	now    func() time.Time
}

// NewService returns a Service over client.
func NewService(client *api.Client) *Service {
	return &Service{client: client, now: time.Now}
}

// List returns records matching filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Record, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, Path, filter.values(), &raw); err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	records, err := decodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("list attendances: decode: %w", err)
	}
	return records, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id int64) (*Record, error) {
	if id <= 0 {
		return nil, fmt.Errorf("get attendance: id: %w", ErrMissingField)
	}
	var rec Record
	if err := s.client.Get(ctx, itemPath(id), nil, &rec); err != nil {
		return nil, fmt.Errorf("get attendance %d: %w", id, err)
	}
	return &rec, nil
}

// Create adds a record. PersonnelID and Date are required; Status defaults
// to present.
func (s *Service) Create(ctx context.Context, in Input) (*Record, error) {
	if in.PersonnelID <= 0 {
		return nil, fmt.Errorf("create attendance: personnel_id: %w", ErrMissingField)
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, fmt.Errorf("create attendance: date: %w", ErrMissingField)
	}
	if in.Status == "" {
		in.Status = StatusPresent
	}
	var rec Record
	if err := s.client.Post(ctx, Path, in, &rec); err != nil {
		return nil, fmt.Errorf("create attendance: %w", err)
	}
	return &rec, nil
}

// Update changes the fields set in in.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Record, error) {
	if id <= 0 {
		return nil, fmt.Errorf("update attendance: id: %w", ErrMissingField)
	}
	var rec Record
	if err := s.client.Put(ctx, itemPath(id), in, &rec); err != nil {
		return nil, fmt.Errorf("update attendance %d: %w", id, err)
	}
	return &rec, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("delete attendance: id: %w", ErrMissingField)
	}
	if err := s.client.Delete(ctx, itemPath(id), nil); err != nil {
		return fmt.Errorf("delete attendance %d: %w", id, err)
	}
	return nil
}

// CheckIn records personnelID as present now.
func (s *Service) CheckIn(ctx context.Context, personnelID int64) (*Record, error) {
	now := s.now()
	return s.Create(ctx, Input{
		PersonnelID: personnelID,
		Date:        now.Format(DateLayout),
		CheckIn:     now.Format(TimeLayout),
		Status:      StatusPresent,
	})
}

// CheckOut closes today's open record for personnelID.
func (s *Service) CheckOut(ctx context.Context, personnelID int64) (*Record, error) {
	if personnelID <= 0 {
		return nil, fmt.Errorf("check out: personnel_id: %w", ErrMissingField)
	}
	now := s.now()
	records, err := s.List(ctx, Filter{PersonnelID: personnelID, Date: now.Format(DateLayout)})
	if err != nil {
		return nil, fmt.Errorf("check out: %w", err)
	}
	for _, rec := range records {
		if rec.Open() {
			return s.Update(ctx, rec.ID, Input{CheckOut: now.Format(TimeLayout)})
		}
	}
	return nil, fmt.Errorf("check out personnel %d: %w", personnelID, ErrNotCheckedIn)
}

func itemPath(id int64) string {
	return Path + "/" + strconv.FormatInt(id, 10)
}
