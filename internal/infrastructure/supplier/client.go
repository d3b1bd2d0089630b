package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL        string
	APIKey         string
	CompanyID      int64
	Timeout        time.Duration
	RequestsPerMin int
}

// Client speaks the supplier's paginated changes feed:
// GET {base}/changes?entityType=&sinceDate=&lastId=&pageSize=
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerMin <= 0 {
		cfg.RequestsPerMin = 60
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMin)), cfg.RequestsPerMin),
	}
}

type changeRecord struct {
	ID          int64    `json:"id"`
	CompanyID   int64    `json:"idEmpresa"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Version     string   `json:"version"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	UpdatedAt   string   `json:"updatedAt"`
}

type changesResponse struct {
	Records []changeRecord `json:"records"`
	LastID  int64          `json:"lastId"`
	Count   int64          `json:"count"`
	HasMore bool           `json:"hasMore"`
}

// Changes fetches one page of records modified since the given cursor.
func (c *Client) Changes(ctx context.Context, entityType domain.EntityType, sinceDate time.Time, lastID int64, pageSize int) (domain.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Page{}, err
	}

	endpoint, err := url.Parse(c.cfg.BaseURL + "/changes")
	if err != nil {
		return domain.Page{}, fmt.Errorf("parse supplier url: %w", err)
	}

	query := endpoint.Query()
	query.Set("entityType", string(entityType))
	query.Set("lastId", strconv.FormatInt(lastID, 10))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if !sinceDate.IsZero() {
		query.Set("sinceDate", sinceDate.UTC().Format(time.RFC3339))
	}
	if c.cfg.CompanyID > 0 {
		query.Set("companyId", strconv.FormatInt(c.cfg.CompanyID, 10))
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return domain.Page{}, fmt.Errorf("build changes request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: %v", domain.ErrSupplierUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Page{}, fmt.Errorf("%w: status %d", domain.ErrSupplierUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 500:
		return domain.Page{}, fmt.Errorf("%w: status %d", domain.ErrSupplierUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return domain.Page{}, fmt.Errorf("supplier returned status %d", resp.StatusCode)
	}

	var body changesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Page{}, fmt.Errorf("decode changes response: %w", err)
	}

	page := domain.Page{
		Records: make([]domain.SupplierRecord, 0, len(body.Records)),
		LastID:  body.LastID,
		Total:   body.Count,
		HasMore: body.HasMore,
	}
	for _, raw := range body.Records {
		page.Records = append(page.Records, toDomainRecord(raw))
	}
	return page, nil
}

func toDomainRecord(raw changeRecord) domain.SupplierRecord {
	record := domain.SupplierRecord{
		ExternalID:  raw.ID,
		CompanyID:   raw.CompanyID,
		Brand:       raw.Brand,
		Model:       raw.Model,
		Version:     raw.Version,
		Year:        raw.Year,
		Description: raw.Description,
		Price:       raw.Price,
		Images:      raw.Images,
	}
	if raw.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.UpdatedAt); err == nil {
			record.UpdatedAt = ts
		}
	}
	return record
}
