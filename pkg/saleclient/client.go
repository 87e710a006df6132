package saleclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-backoffice/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// Client talks to the back-office REST API. It implements ProductLookup and
// Submitter.
type Client struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Timeout: defaultTimeout,
	}
}

// Login exchanges credentials for a bearer token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, fiber.MethodPost, "/api/auth/login", body, &out); err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	if err := c.do(ctx, fiber.MethodGet, "/api/products/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListSales(ctx context.Context) ([]Sale, error) {
	var sales []Sale
	if err := c.do(ctx, fiber.MethodGet, "/api/sales", nil, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (c *Client) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	var s Sale
	if err := c.do(ctx, fiber.MethodGet, "/api/sales/"+id.String(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateSale(ctx context.Context, req *SaleRequest) (*Sale, error) {
	var s Sale
	if err := c.do(ctx, fiber.MethodPost, "/api/sales", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateSale(ctx context.Context, id uuid.UUID, req *SaleRequest) (*Sale, error) {
	var s Sale
	if err := c.do(ctx, fiber.MethodPut, "/api/sales/"+id.String(), req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) DeleteSale(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, fiber.MethodDelete, "/api/sales/"+id.String(), nil, nil)
}

type errorBody struct {
	Error       string    `json:"error"`
	Code        string    `json:"code"`
	Field       string    `json:"field"`
	Details     string    `json:"details"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.BaseURL + path)
	if c.Token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.Token)
	}
	if in != nil {
		a.JSON(in)
	}

	timeout := c.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return apperr.Persistence(method+" "+path, errors.Join(errs...))
	}

	if code >= 400 {
		return decodeError(code, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// decodeError maps an error response back onto the apperr taxonomy.
func decodeError(code int, body []byte) error {
	var e errorBody
	_ = json.Unmarshal(body, &e)
	if e.Error == "" {
		e.Error = fmt.Sprintf("request failed with status %d", code)
	}

	switch {
	case e.Code == "insufficient_stock":
		return &apperr.InsufficientStockError{
			ProductID:   e.ProductID,
			ProductName: e.ProductName,
			Requested:   e.Requested,
			Available:   e.Available,
		}
	case code == fiber.StatusNotFound:
		return fmt.Errorf("%s: %w", e.Error, apperr.ErrNotFound)
	case code == fiber.StatusBadRequest:
		return &apperr.ValidationError{Field: e.Field, Message: e.Error}
	case code >= 500:
		detail := e.Details
		if detail == "" {
			detail = e.Error
		}
		return apperr.Persistence("server", errors.New(detail))
	default:
		return &StatusError{Code: code, Message: e.Error}
	}
}

// StatusError is a response outside the sale error taxonomy, such as 401 or 403.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}
